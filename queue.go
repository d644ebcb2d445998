package greenthread

// queue is a FIFO ring buffer. The zero value is ready to use.
type queue[T any] struct {
	buf  []T
	head int
	size int
}

func (x *queue[T]) Len() int {
	return x.size
}

func (x *queue[T]) Push(v T) {
	if x.size == len(x.buf) {
		x.grow()
	}
	x.buf[(x.head+x.size)%len(x.buf)] = v
	x.size++
}

// Pop removes the oldest value.
func (x *queue[T]) Pop() (v T, ok bool) {
	if x.size == 0 {
		return
	}
	var zero T
	v, ok = x.buf[x.head], true
	x.buf[x.head] = zero
	x.head = (x.head + 1) % len(x.buf)
	x.size--
	return
}

// Each calls fn for every value, oldest first.
func (x *queue[T]) Each(fn func(v T)) {
	for i := 0; i < x.size; i++ {
		fn(x.buf[(x.head+i)%len(x.buf)])
	}
}

func (x *queue[T]) grow() {
	n := len(x.buf) * 2
	if n == 0 {
		n = 8
	}
	buf := make([]T, n)
	for i := 0; i < x.size; i++ {
		buf[i] = x.buf[(x.head+i)%len(x.buf)]
	}
	x.buf = buf
	x.head = 0
}
