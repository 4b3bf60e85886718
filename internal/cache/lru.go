package cache

// lruNode is a node in a doubly-linked LRU list.
// The node stores a key for O(1) deletion from the parent map.
type lruNode[K comparable] struct {
	key  K
	prev *lruNode[K]
	next *lruNode[K]
}

// lruList is a doubly-linked list ordered by recency of use.
// The head is the most recently used, tail is least recently used.
type lruList[K comparable] struct {
	head *lruNode[K]
	tail *lruNode[K]
	len  int
}

// Len returns the number of nodes in the list.
func (l *lruList[K]) Len() int { return l.len }

// PushFront adds key as the most recently used node.
func (l *lruList[K]) PushFront(key K) *lruNode[K] {
	node := &lruNode[K]{key: key}
	l.linkFront(node)
	return node
}

// MoveToFront marks node as the most recently used.
func (l *lruList[K]) MoveToFront(node *lruNode[K]) {
	if node == nil || node == l.head {
		return
	}
	l.unlink(node)
	l.linkFront(node)
}

// Remove unlinks node.
func (l *lruList[K]) Remove(node *lruNode[K]) {
	if node != nil {
		l.unlink(node)
	}
}

// Oldest returns the least recently used node, or nil.
func (l *lruList[K]) Oldest() *lruNode[K] { return l.tail }

// Clear drops every node.
func (l *lruList[K]) Clear() {
	l.head, l.tail, l.len = nil, nil, 0
}

func (l *lruList[K]) linkFront(node *lruNode[K]) {
	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

func (l *lruList[K]) unlink(node *lruNode[K]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev, node.next = nil, nil
	l.len--
}
