package notify

import "context"

// Notification is a best-effort push to a trainer's device or dashboard.
type Notification struct {
	RecipientID string            `json:"recipientId"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
}

// Dispatcher delivers notifications. Delivery is fire-and-forget from the
// caller's perspective: a dispatch error never rolls back whatever state
// change prompted the notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *Notification) error
}

// Multi fans a notification out to several dispatchers, returning the
// first error after trying all of them.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, n *Notification) error {
	var firstErr error
	for _, d := range m {
		if err := d.Dispatch(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
