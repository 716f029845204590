package action

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Body is the chat payload the host hands to the panel. The panel appends
// rendered HTML to the last message's content; Role is the caller-supplied
// role flag checked by the admin gate.
type Body struct {
	Messages []Message `json:"messages"`
	Role     string    `json:"role,omitempty"`
}

// AppendToLastMessage appends content to the final message, separated by a
// blank line. A body without messages is left untouched.
func (b *Body) AppendToLastMessage(content string) {
	if b == nil || len(b.Messages) == 0 {
		return
	}
	b.Messages[len(b.Messages)-1].Content += "\n\n" + content
}
