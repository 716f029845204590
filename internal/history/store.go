// Package history persists invocation telemetry for the panel.
// It stores metadata only - no chat content and no response bodies.
package history

// Status represents the final status of an invocation.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusHTTPError      Status = "http_error"
	StatusTransportError Status = "transport_error"
	StatusCanceled       Status = "canceled"
)

// Invocation is one executed panel command.
type Invocation struct {
	ID         string `json:"id"`
	TS         int64  `json:"ts"` // unix ms
	Command    string `json:"command"`
	Endpoint   string `json:"endpoint"`
	Status     Status `json:"status"`
	HTTPStatus int    `json:"http_status,omitempty"`
	DurationMs int    `json:"duration_ms"`
	ErrorClass string `json:"error_class,omitempty"`
}

// Store is the invocation-history backend.
type Store interface {
	// Insert records a completed invocation.
	Insert(inv *Invocation) error

	// Recent returns up to limit invocations, newest first.
	Recent(limit int) ([]Invocation, error)

	// Count returns the number of stored invocations.
	Count() (int, error)

	// Close releases resources.
	Close() error
}

// NopStore discards everything. Used when HISTORY=off.
type NopStore struct{}

func (NopStore) Insert(*Invocation) error         { return nil }
func (NopStore) Recent(int) ([]Invocation, error) { return nil, nil }
func (NopStore) Count() (int, error)              { return 0, nil }
func (NopStore) Close() error                     { return nil }
