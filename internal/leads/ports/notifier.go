package ports

import "context"

// Channel identifies a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notifier dispatches a message to an agent or consumer. Delivery is
// fire-and-forget from the lifecycle controller's perspective: a false or an
// error is logged by the caller, never surfaced as a lead-operation failure.
type Notifier interface {
	Notify(ctx context.Context, channel Channel, destination, subject, body string) (delivered bool, err error)
}
