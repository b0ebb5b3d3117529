package lively

// orderedMap is an insertion-ordered identity map: a doubly linked list of
// entries over a hash index. Dispatch order is an observable contract, so a
// plain map cannot substitute for it.
//
// Iterators register with the map and are told about removals so that
// iteration survives entries disappearing mid-walk. Callers must release
// every iterator they take.
//
// Keys are compared by identity (interface equality); callers pass pointer
// or interface keys with comparable dynamic types.
type orderedMap[K any, V any] struct {
	index     map[any]*mapEntry[K, V]
	first     *mapEntry[K, V]
	last      *mapEntry[K, V]
	iterators map[removeAware[K, V]]struct{}
}

type mapEntry[K any, V any] struct {
	key   K
	value V
	next  *mapEntry[K, V]
	prev  *mapEntry[K, V]
}

// removeAware is implemented by iterators that need to adjust when an entry
// is removed while they are mid-walk.
type removeAware[K any, V any] interface {
	entryRemoved(e *mapEntry[K, V])
}

func newOrderedMap[K any, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{
		index:     make(map[any]*mapEntry[K, V]),
		iterators: make(map[removeAware[K, V]]struct{}),
	}
}

func (m *orderedMap[K, V]) size() int {
	return len(m.index)
}

func (m *orderedMap[K, V]) contains(key K) bool {
	_, ok := m.index[key]
	return ok
}

func (m *orderedMap[K, V]) get(key K) (V, bool) {
	if e, ok := m.index[key]; ok {
		return e.value, true
	}
	var zero V
	return zero, false
}

// eldest returns the least recently added entry, or nil if the map is empty.
func (m *orderedMap[K, V]) eldest() *mapEntry[K, V] {
	return m.first
}

// newest returns the most recently added entry, or nil if the map is empty.
func (m *orderedMap[K, V]) newest() *mapEntry[K, V] {
	return m.last
}

// previousOf returns the entry added immediately before key, or nil if key
// is absent or eldest.
func (m *orderedMap[K, V]) previousOf(key K) *mapEntry[K, V] {
	e, ok := m.index[key]
	if !ok {
		return nil
	}
	return e.prev
}

// putIfAbsent appends a new entry and reports true, or returns the existing
// value untouched and reports false. Duplicate insertion is a no-op, never
// an error.
func (m *orderedMap[K, V]) putIfAbsent(key K, value V) (V, bool) {
	if e, ok := m.index[key]; ok {
		return e.value, false
	}
	e := &mapEntry[K, V]{key: key, value: value}
	if m.last == nil {
		m.first = e
		m.last = e
	} else {
		e.prev = m.last
		m.last.next = e
		m.last = e
	}
	m.index[key] = e
	var zero V
	return zero, true
}

// remove detaches the entry for key without disturbing the relative order of
// the remaining entries. Live iterators are notified before the entry is
// unlinked so they can still follow its neighbor pointers.
func (m *orderedMap[K, V]) remove(key K) (V, bool) {
	e, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(m.index, key)
	for it := range m.iterators {
		it.entryRemoved(e)
	}
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		m.first = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		m.last = e.prev
	}
	e.next = nil
	e.prev = nil
	return e.value, true
}

func (m *orderedMap[K, V]) release(it removeAware[K, V]) {
	delete(m.iterators, it)
}

// listIter walks between two endpoints fixed at creation time. It does not
// observe entries appended during the walk, but it survives removal of any
// entry it has not yet consumed, including the one it would visit next.
type listIter[K any, V any] struct {
	next        *mapEntry[K, V]
	expectedEnd *mapEntry[K, V]
	forward     func(*mapEntry[K, V]) *mapEntry[K, V]
	backward    func(*mapEntry[K, V]) *mapEntry[K, V]
}

// ascending returns a listIter from eldest to newest.
func (m *orderedMap[K, V]) ascending() *listIter[K, V] {
	it := &listIter[K, V]{
		next:        m.first,
		expectedEnd: m.last,
		forward:     func(e *mapEntry[K, V]) *mapEntry[K, V] { return e.next },
		backward:    func(e *mapEntry[K, V]) *mapEntry[K, V] { return e.prev },
	}
	m.iterators[it] = struct{}{}
	return it
}

// descending returns a listIter from newest to eldest.
func (m *orderedMap[K, V]) descending() *listIter[K, V] {
	it := &listIter[K, V]{
		next:        m.last,
		expectedEnd: m.first,
		forward:     func(e *mapEntry[K, V]) *mapEntry[K, V] { return e.prev },
		backward:    func(e *mapEntry[K, V]) *mapEntry[K, V] { return e.next },
	}
	m.iterators[it] = struct{}{}
	return it
}

func (it *listIter[K, V]) nextNode() *mapEntry[K, V] {
	if it.next == it.expectedEnd || it.expectedEnd == nil {
		return nil
	}
	return it.forward(it.next)
}

func (it *listIter[K, V]) advance() (*mapEntry[K, V], bool) {
	e := it.next
	if e == nil {
		return nil, false
	}
	it.next = it.nextNode()
	return e, true
}

func (it *listIter[K, V]) entryRemoved(e *mapEntry[K, V]) {
	if it.expectedEnd == e && e == it.next {
		it.next = nil
		it.expectedEnd = nil
	}
	if it.expectedEnd == e {
		it.expectedEnd = it.backward(e)
	}
	if it.next == e {
		it.next = it.nextNode()
	}
}

// additionsIter walks ascending and, unlike listIter, observes entries
// appended to the tail after the walk began. If the entry it last consumed
// is removed, it resumes from the entry logically preceding it.
type additionsIter[K any, V any] struct {
	m           *orderedMap[K, V]
	current     *mapEntry[K, V]
	beforeStart bool
}

// ascendingWithAdditions returns an additionsIter positioned before the
// eldest entry.
func (m *orderedMap[K, V]) ascendingWithAdditions() *additionsIter[K, V] {
	it := &additionsIter[K, V]{m: m, beforeStart: true}
	m.iterators[it] = struct{}{}
	return it
}

func (it *additionsIter[K, V]) advance() (*mapEntry[K, V], bool) {
	if it.beforeStart {
		it.beforeStart = false
		it.current = it.m.first
	} else if it.current != nil {
		it.current = it.current.next
	}
	return it.current, it.current != nil
}

func (it *additionsIter[K, V]) entryRemoved(e *mapEntry[K, V]) {
	if it.current == e {
		it.current = e.prev
		it.beforeStart = it.current == nil
	}
}
