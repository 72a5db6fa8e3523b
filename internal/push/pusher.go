package push

import (
	"context"
	"errors"
)

// Message is a single per-device push. Badge carries the recipient's unread
// count for platforms that render one.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
	Badge int
}

// Outcome reports the delivery result for one message.
type Outcome struct {
	Token string
	Err   error
}

// Report summarises a Send call. Individual message failures appear in
// Outcomes; they never fail the call itself.
type Report struct {
	SuccessCount int
	FailureCount int
	Outcomes     []Outcome
}

// Pusher delivers per-device messages through an external provider.
type Pusher interface {
	Send(ctx context.Context, messages []Message) (Report, error)
}

// Options configures a push client implementation.
type Options struct {
	ProjectID       string
	CredentialsFile string
}

// ErrMissingProjectID indicates the push project ID is not provided.
var ErrMissingProjectID = errors.New("push project ID is required")
