package repository

// table keeps entities by id in insertion order. It is not safe for
// concurrent use; MemStore guards it.
type table[T any] struct {
	order []string
	byID  map[string]T
}

func newTable[T any]() *table[T] {
	return &table[T]{byID: make(map[string]T)}
}

func (t *table[T]) len() int { return len(t.order) }

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.byID[id]
	return v, ok
}

func (t *table[T]) has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// insert adds v at the end. It reports false if id is taken.
func (t *table[T]) insert(id string, v T) bool {
	if _, ok := t.byID[id]; ok {
		return false
	}
	t.byID[id] = v
	t.order = append(t.order, id)
	return true
}

// set replaces an existing value in place. It reports false if id is unknown.
func (t *table[T]) set(id string, v T) bool {
	if _, ok := t.byID[id]; !ok {
		return false
	}
	t.byID[id] = v
	return true
}

func (t *table[T]) remove(id string) bool {
	if _, ok := t.byID[id]; !ok {
		return false
	}
	delete(t.byID, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// removeWhere deletes every value matching pred in one pass and returns the
// removed values in order.
func (t *table[T]) removeWhere(pred func(T) bool) []T {
	var removed []T
	kept := t.order[:0]
	for _, id := range t.order {
		v := t.byID[id]
		if pred(v) {
			removed = append(removed, v)
			delete(t.byID, id)
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
	return removed
}

// each visits values in insertion order until fn returns false.
func (t *table[T]) each(fn func(id string, v T) bool) {
	for _, id := range t.order {
		if !fn(id, t.byID[id]) {
			return
		}
	}
}

func (t *table[T]) list(clone func(T) T) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		v := t.byID[id]
		if clone != nil {
			v = clone(v)
		}
		out = append(out, v)
	}
	return out
}
