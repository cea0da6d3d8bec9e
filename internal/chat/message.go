package chat

import "strings"

// CanonicalSender reduces a transport address such as "User@Host/Resource"
// to the "user@host" form subscriptions and tokens are keyed by.
func CanonicalSender(raw string) string {
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		raw = raw[:i]
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// Message is an inbound chat message, parsed once at intake.
type Message struct {
	RawSender string
	Sender    string
	Body      string
	Command   Command
	Parsed    bool
}

func NewMessage(rawSender, body string) Message {
	cmd, ok := Parse(body)
	return Message{
		RawSender: rawSender,
		Sender:    CanonicalSender(rawSender),
		Body:      body,
		Command:   cmd,
		Parsed:    ok,
	}
}
