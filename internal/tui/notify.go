package tui

// Notifier coalesces change signals from session goroutines into a single
// pending wake-up for the update loop.
type Notifier struct {
	c chan struct{}
}

// NewNotifier creates a Notifier.
func NewNotifier() *Notifier {
	return &Notifier{c: make(chan struct{}, 1)}
}

// Notify records a change. It never blocks.
func (n *Notifier) Notify() {
	select {
	case n.c <- struct{}{}:
	default:
	}
}

// C returns the channel that is signalled after Notify.
func (n *Notifier) C() <-chan struct{} {
	return n.c
}
