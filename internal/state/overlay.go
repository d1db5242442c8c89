package state

import "context"

// Reader exposes committed key-value state.
type Reader interface {
	Get(ctx context.Context, key []byte) ([]byte, bool, error)
}

// Store is readable state that accepts staged writes.
type Store interface {
	Reader
	Put(key, value []byte)
}

// Write is a single staged key-value assignment.
type Write struct {
	Key   []byte
	Value []byte
}

// Overlay stages writes on top of a Reader. Nothing reaches the base until the
// owner takes Writes and commits them.
type Overlay struct {
	base   Reader
	staged map[string][]byte
	order  []string
}

func NewOverlay(base Reader) *Overlay {
	return &Overlay{
		base:   base,
		staged: make(map[string][]byte),
	}
}

// Get returns the staged value for key, falling back to the base.
func (o *Overlay) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if value, ok := o.staged[string(key)]; ok {
		return append([]byte(nil), value...), true, nil
	}
	if o.base == nil {
		return nil, false, nil
	}
	return o.base.Get(ctx, key)
}

// Put stages value for key.
func (o *Overlay) Put(key, value []byte) {
	k := string(key)
	if _, ok := o.staged[k]; !ok {
		o.order = append(o.order, k)
	}
	o.staged[k] = append([]byte(nil), value...)
}

// Writes returns the staged assignments in first-write order.
func (o *Overlay) Writes() []Write {
	writes := make([]Write, 0, len(o.order))
	for _, k := range o.order {
		writes = append(writes, Write{Key: []byte(k), Value: o.staged[k]})
	}
	return writes
}

// Len reports the number of staged keys.
func (o *Overlay) Len() int {
	return len(o.order)
}
