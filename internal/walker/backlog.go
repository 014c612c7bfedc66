package walker

// backlog holds visited containers awaiting expansion. It is not safe for
// concurrent use; the engine guards it with its own mutex.
type backlog[T any] struct {
	items []T
	head  int // first live element in FIFO mode
	fifo  bool
}

func newBacklog[T any](order Order) *backlog[T] {
	return &backlog[T]{fifo: order == OrderFIFO}
}

func (b *backlog[T]) push(item T) {
	b.items = append(b.items, item)
}

// pop removes the next item according to the backlog order.
func (b *backlog[T]) pop() (T, bool) {
	var zero T
	if b.len() == 0 {
		return zero, false
	}

	if b.fifo {
		item := b.items[b.head]
		b.items[b.head] = zero
		b.head++
		if b.head == len(b.items) {
			b.items = b.items[:0]
			b.head = 0
		}
		return item, true
	}

	last := len(b.items) - 1
	item := b.items[last]
	b.items[last] = zero
	b.items = b.items[:last]
	return item, true
}

func (b *backlog[T]) len() int {
	return len(b.items) - b.head
}

// reset discards all pending items.
func (b *backlog[T]) reset() {
	clear(b.items)
	b.items = b.items[:0]
	b.head = 0
}
