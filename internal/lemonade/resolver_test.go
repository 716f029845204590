package lemonade

import (
	"reflect"
	"testing"
)

func TestBaseCandidates(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		alias string
		want  []string
	}{
		{
			name:  "remote host stays single",
			base:  "http://lemonade.internal:8000",
			alias: "host.docker.internal",
			want:  []string{"http://lemonade.internal:8000"},
		},
		{
			name:  "localhost gains docker fallback",
			base:  "http://localhost:8000",
			alias: "host.docker.internal",
			want:  []string{"http://localhost:8000", "http://host.docker.internal:8000"},
		},
		{
			name:  "localhost without port",
			base:  "http://localhost",
			alias: "host.docker.internal",
			want:  []string{"http://localhost", "http://host.docker.internal"},
		},
		{
			name:  "case insensitive hostname match",
			base:  "http://LOCALHOST:8000",
			alias: "host.docker.internal",
			want:  []string{"http://LOCALHOST:8000", "http://host.docker.internal:8000"},
		},
		{
			name:  "localhost token inside hostname",
			base:  "http://my-localhost-proxy:8000",
			alias: "host.docker.internal",
			want:  []string{"http://my-localhost-proxy:8000", "http://host.docker.internal:8000"},
		},
		{
			name:  "trailing slash stripped",
			base:  "http://localhost:8000/",
			alias: "host.docker.internal",
			want:  []string{"http://localhost:8000", "http://host.docker.internal:8000"},
		},
		{
			name:  "path and query preserved",
			base:  "https://localhost:8000/lemonade?x=1",
			alias: "host.docker.internal",
			want:  []string{"https://localhost:8000/lemonade?x=1", "https://host.docker.internal:8000/lemonade?x=1"},
		},
		{
			name:  "degenerate rewrite collapses to one",
			base:  "http://localhost:8000",
			alias: "localhost",
			want:  []string{"http://localhost:8000"},
		},
		{
			name:  "127.0.0.1 is not localhost",
			base:  "http://127.0.0.1:8000",
			alias: "host.docker.internal",
			want:  []string{"http://127.0.0.1:8000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BaseCandidates(tt.base, tt.alias)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BaseCandidates(%q, %q) = %v, want %v", tt.base, tt.alias, got, tt.want)
			}
		})
	}
}

func TestBaseCandidatesDeterministic(t *testing.T) {
	a := BaseCandidates("http://localhost:8000", "host.docker.internal")
	b := BaseCandidates("http://localhost:8000", "host.docker.internal")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("BaseCandidates not deterministic: %v vs %v", a, b)
	}
}
