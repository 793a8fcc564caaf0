package compare

// ring keeps the last n pairs in insertion order.
type ring struct {
	buf   []Pair
	next  int
	count int
}

func newRing(n int) *ring {
	if n <= 0 {
		return &ring{}
	}
	return &ring{buf: make([]Pair, n)}
}

func (r *ring) push(p Pair) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.next] = p
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// snapshot returns the stored pairs, oldest first.
func (r *ring) snapshot() []Pair {
	if r.count == 0 {
		return nil
	}
	out := make([]Pair, 0, r.count)
	start := (r.next - r.count + len(r.buf)) % len(r.buf)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}
