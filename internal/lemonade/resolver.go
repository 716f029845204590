package lemonade

import (
	"net"
	"net/url"
	"strings"
)

// BaseCandidates returns the ordered list of base URLs to try for a request.
//
// The first entry is always the normalized primary (trailing slash stripped).
// When the configured hostname contains "localhost" a second candidate is
// added with the hostname swapped for alias, so a panel running inside a
// container can still reach a server on the docker host. The port, scheme,
// path, query and fragment are preserved.
//
// Pure function: no I/O, deterministic.
func BaseCandidates(base, alias string) []string {
	primary := strings.TrimRight(base, "/")

	u, err := url.Parse(primary)
	if err != nil {
		return []string{primary}
	}

	host := u.Hostname()
	if !strings.Contains(strings.ToLower(host), "localhost") {
		return []string{primary}
	}

	fb := *u
	if port := u.Port(); port != "" {
		fb.Host = net.JoinHostPort(alias, port)
	} else {
		fb.Host = alias
	}

	fallback := strings.TrimRight(fb.String(), "/")
	if fallback == primary {
		return []string{primary}
	}
	return []string{primary, fallback}
}
