package deque

type node[T any] struct {
	value T
	prev  *node[T]
	next  *node[T]
}

// Deque is a doubly-linked double-ended queue. It carries no lock of its
// own: every Deque is owned by exactly one queue whose mutex serializes
// all access.
type Deque[T any] struct {
	head *node[T]
	tail *node[T]
	size int
}

func New[T any]() *Deque[T] {
	return &Deque[T]{}
}

func (d *Deque[T]) Len() int {
	return d.size
}

// PushBack appends value at the tail.
func (d *Deque[T]) PushBack(value T) {
	n := &node[T]{value: value}
	if d.size == 0 {
		d.head = n
		d.tail = n
	} else {
		n.prev = d.tail
		d.tail.next = n
		d.tail = n
	}
	d.size++
}

// PushFront inserts value at the head, ahead of everything already stored.
func (d *Deque[T]) PushFront(value T) {
	n := &node[T]{value: value}
	if d.size == 0 {
		d.head = n
		d.tail = n
	} else {
		n.next = d.head
		d.head.prev = n
		d.head = n
	}
	d.size++
}

// PopFront removes and returns the oldest element.
func (d *Deque[T]) PopFront() (zero T, _ bool) {
	if d.size == 0 {
		return zero, false
	}

	current := d.head
	next := current.next
	if next != nil {
		next.prev = nil
	} else {
		d.tail = nil
	}
	d.head = next
	d.size--

	current.next = nil
	current.prev = nil

	return current.value, true
}

// Front returns the oldest element without removing it.
func (d *Deque[T]) Front() (zero T, _ bool) {
	if d.size == 0 {
		return zero, false
	}
	return d.head.value, true
}
