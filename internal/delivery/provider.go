package delivery

import "context"

// Message is the channel-agnostic payload handed to providers.
type Message struct {
	Recipient string
	Subject   string // ignored by SMS providers
	Body      string
}

// Provider is one concrete vendor behind a channel. Providers are tried in
// the order the Sender holds them; the first success terminates the chain.
type Provider interface {
	Name() string
	// Configured reports whether the provider has the credentials it needs.
	// Unconfigured providers are skipped without a network call.
	Configured() bool
	// Attempt performs one delivery and returns the provider's message ID
	// when it has one.
	Attempt(ctx context.Context, msg Message) (messageID string, err error)
}
