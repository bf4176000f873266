package render

import "strconv"

type heading struct {
	level int
	title string
}

// Tracker maintains the stack of headings enclosing the current point of a
// document walk.
type Tracker struct {
	stack []heading
}

// Enter records a heading. Headings at the same or a deeper level are
// popped first, so the stack stays strictly increasing in level. Levels
// below 1 are treated as 1.
func (t *Tracker) Enter(level int, title string) {
	level = max(level, 1)
	for len(t.stack) > 0 && t.stack[len(t.stack)-1].level >= level {
		t.stack = t.stack[:len(t.stack)-1]
	}
	t.stack = append(t.stack, heading{level: level, title: title})
}

// Depth returns the number of enclosing headings
func (t *Tracker) Depth() int {
	return len(t.stack)
}

// Snapshot returns the current breadcrumb as level → title. The map is a
// copy and never nil.
func (t *Tracker) Snapshot() map[string]string {
	out := make(map[string]string, len(t.stack))
	for _, h := range t.stack {
		out[strconv.Itoa(h.level)] = h.title
	}
	return out
}

// Reset clears the stack
func (t *Tracker) Reset() {
	t.stack = t.stack[:0]
}
