package action

import "context"

// NotifyLevel classifies host notifications.
type NotifyLevel string

const (
	NotifyInfo    NotifyLevel = "info"
	NotifySuccess NotifyLevel = "success"
	NotifyWarning NotifyLevel = "warning"
	NotifyError   NotifyLevel = "error"
)

// Prompt describes a modal text input request.
type Prompt struct {
	Title       string
	Message     string
	Placeholder string
}

// Host is the capability surface the chat UI grants the panel: a status
// line, toast notifications, and a modal text prompt. Implementations must
// tolerate being called from a single goroutine per invocation.
type Host interface {
	ReportStatus(ctx context.Context, description string, done bool)
	Notify(ctx context.Context, level NotifyLevel, content string)

	// PromptForText blocks until the user answers or dismisses the modal.
	// The second return is false when the prompt was cancelled.
	PromptForText(ctx context.Context, p Prompt) (string, bool)
}

// NopHost ignores status and notifications and cancels every prompt.
type NopHost struct{}

func (NopHost) ReportStatus(context.Context, string, bool)           {}
func (NopHost) Notify(context.Context, NotifyLevel, string)          {}
func (NopHost) PromptForText(context.Context, Prompt) (string, bool) { return "", false }
