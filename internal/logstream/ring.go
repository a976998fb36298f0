package logstream

// DefaultBufferLines is the default number of lines a session retains.
const DefaultBufferLines = 5000

// lineRing is a fixed-capacity circular buffer of lines. Appending to a
// full ring overwrites the oldest line. It is not safe for concurrent use;
// Session guards it.
type lineRing struct {
	lines   []string
	start   int
	count   int
	dropped uint64
}

func newLineRing(capacity int) *lineRing {
	if capacity <= 0 {
		capacity = DefaultBufferLines
	}
	return &lineRing{lines: make([]string, capacity)}
}

func (r *lineRing) append(line string) {
	capacity := len(r.lines)
	if r.count < capacity {
		r.lines[(r.start+r.count)%capacity] = line
		r.count++
		return
	}
	r.lines[r.start] = line
	r.start = (r.start + 1) % capacity
	r.dropped++
}

// snapshot returns the retained lines, oldest first.
func (r *lineRing) snapshot() []string {
	out := make([]string, r.count)
	capacity := len(r.lines)
	for i := 0; i < r.count; i++ {
		out[i] = r.lines[(r.start+i)%capacity]
	}
	return out
}

func (r *lineRing) reset() {
	for i := range r.lines {
		r.lines[i] = ""
	}
	r.start = 0
	r.count = 0
	r.dropped = 0
}

func (r *lineRing) len() int { return r.count }
