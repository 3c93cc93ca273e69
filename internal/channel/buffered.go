package channel

// Buffered is a buffered channel implementation. Send drops when the
// buffer is full rather than blocking, so a slow consumer can never
// stall the tick loop.
type Buffered[T any] struct {
	ch chan T
}

// NewBuffered creates a new buffered channel with the given size.
func NewBuffered[T any](size int) *Buffered[T] {
	return &Buffered[T]{ch: make(chan T, size)}
}

// Send offers a value to the channel, reporting false when the buffer
// is full and the value was dropped.
func (b *Buffered[T]) Send(v T) bool {
	select {
	case b.ch <- v:
		return true
	default:
		return false
	}
}

// Receive returns the receive-only channel.
func (b *Buffered[T]) Receive() <-chan T {
	return b.ch
}

// Len returns the number of items currently in the buffer.
func (b *Buffered[T]) Len() int {
	return len(b.ch)
}

// Close closes the channel.
func (b *Buffered[T]) Close() {
	close(b.ch)
}
