package profiler

// ring is a fixed-capacity window that overwrites its oldest entry once full.
type ring[T ~int64 | ~float64] struct {
	buf   []T
	next  int
	full  bool
	total T
}

func newRing[T ~int64 | ~float64](capacity int) ring[T] {
	return ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	if r.full {
		r.total -= r.buf[r.next]
	}
	r.buf[r.next] = v
	r.total += v
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *ring[T]) size() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

func (r *ring[T]) sum() T {
	return r.total
}

func (r *ring[T]) last() T {
	if r.size() == 0 {
		return 0
	}
	i := r.next - 1
	if i < 0 {
		i = len(r.buf) - 1
	}
	return r.buf[i]
}
