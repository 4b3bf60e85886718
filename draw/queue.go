package draw

import (
	"cmp"
	"slices"
)

// Kind identifies the concrete type of a drawable. Adjacent drawables of
// the same kind may be batched.
type Kind uint8

const (
	KindShape Kind = iota + 1
	KindSurfaceShape
	KindTerrain
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindShape:
		return "shape"
	case KindSurfaceShape:
		return "surface shape"
	case KindTerrain:
		return "terrain"
	default:
		return "unknown"
	}
}

// Drawable is a unit of GPU work queued for the current frame.
type Drawable interface {
	// Draw issues the drawable's GPU commands. It may poll further
	// drawables from dc's queue.
	Draw(dc *Context)

	// Recycle returns the drawable to its pool. The drawable must not be
	// used afterwards.
	Recycle()

	// Kind reports the concrete type for batching.
	Kind() Kind
}

// Group orders drawables coarsely. Lower groups draw first.
type Group uint8

const (
	GroupBackground Group = iota
	GroupSurface
	GroupShape
	GroupScreen
)

type queueEntry struct {
	drawable Drawable
	group    Group
	depth    float64
	ordinal  int
}

// Queue is the ordered list of drawables for one frame. Entries are
// consumed with Peek and Poll; polled entries stay owned by the queue until
// Clear recycles them.
type Queue struct {
	entries  []queueEntry
	position int
}

// NewQueue returns an empty queue with room for capacity entries.
func NewQueue(capacity int) *Queue {
	return &Queue{entries: make([]queueEntry, 0, capacity)}
}

// Offer appends d. Within a group, lower depth draws first; equal depths
// keep their offer order.
func (q *Queue) Offer(d Drawable, group Group, depth float64) {
	q.entries = append(q.entries, queueEntry{drawable: d, group: group, depth: depth, ordinal: len(q.entries)})
}

// Len returns the number of offered drawables.
func (q *Queue) Len() int { return len(q.entries) }

// Remaining returns the number of drawables not yet polled.
func (q *Queue) Remaining() int { return len(q.entries) - q.position }

// Peek returns the next drawable without consuming it, or nil.
func (q *Queue) Peek() Drawable {
	if q.position < len(q.entries) {
		return q.entries[q.position].drawable
	}
	return nil
}

// Poll consumes and returns the next drawable, or nil.
func (q *Queue) Poll() Drawable {
	if q.position < len(q.entries) {
		d := q.entries[q.position].drawable
		q.position++
		return d
	}
	return nil
}

// Rewind restarts consumption at the first entry.
func (q *Queue) Rewind() { q.position = 0 }

// Sort orders entries by group, then depth, then offer order, and rewinds.
func (q *Queue) Sort() {
	slices.SortFunc(q.entries, func(a, b queueEntry) int {
		if c := cmp.Compare(a.group, b.group); c != 0 {
			return c
		}
		if c := cmp.Compare(a.depth, b.depth); c != 0 {
			return c
		}
		return cmp.Compare(a.ordinal, b.ordinal)
	})
	q.position = 0
}

// Clear recycles every offered drawable and empties the queue.
func (q *Queue) Clear() {
	for i := range q.entries {
		q.entries[i].drawable.Recycle()
		q.entries[i].drawable = nil
	}
	q.entries = q.entries[:0]
	q.position = 0
}

// List is a reusable slice of drawables.
type List struct {
	items []Drawable
}

// Add appends d.
func (l *List) Add(d Drawable) { l.items = append(l.items, d) }

// Len returns the number of drawables.
func (l *List) Len() int { return len(l.items) }

// At returns the drawable at index i.
func (l *List) At(i int) Drawable { return l.items[i] }

// Clear empties the list without recycling its drawables.
func (l *List) Clear() {
	clear(l.items)
	l.items = l.items[:0]
}
