// Package freepool implements a small generic free list used to recycle
// heap-allocated scratch values (in this module, pooled splitter state)
// instead of letting them go through the garbage collector on every
// use.
package freepool

import "sync"

// Pool recycles values of type T. The zero value is not usable; construct
// one with New or NewStruct.
type Pool[T any] struct {
	pool  sync.Pool
	clean func(T)
}

// New returns a Pool whose Take calls makeNew to construct a fresh T and
// whose Return calls clean on a value before it is retained for reuse.
func New[T any](makeNew func() T, clean func(T)) *Pool[T] {
	p := &Pool[T]{clean: clean}

	p.pool.New = func() any {
		return makeNew()
	}

	return p
}

// NewStruct returns a Pool of *S, where a fresh element is a pointer to a
// copy of clean, and a returned element is reset back to *clean before
// being retained.
func NewStruct[S any](clean S) *Pool[*S] {
	return New(
		func() *S {
			v := clean

			return &v
		},
		func(v *S) {
			*v = clean
		},
	)
}

// Take removes a value from the pool, constructing a new one if the pool
// is empty.
func (p *Pool[T]) Take() T {
	return p.pool.Get().(T) //nolint:forcetypeassert
}

// Return cleans v and retains it for a future Take.
func (p *Pool[T]) Return(v T) {
	if p.clean != nil {
		p.clean(v)
	}

	p.pool.Put(v)
}
