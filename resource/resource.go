// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"sync/atomic"
)

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Resource is a loaded payload handed out by a Pool. Implementations
// embed Base, which carries the bookkeeping the Pool maintains.
type Resource interface {
	Releasable

	// RefCount returns the number of holders that acquired
	// the resource and did not release it yet.
	RefCount() int

	// PoolID returns the pool slot the resource was last fetched from.
	PoolID() int

	base() *Base
}

// Base holds the reference count and pool slot of a Resource.
// Only the Pool changes these values, holders may read them at any time.
type Base struct {
	refCount atomic.Int32
	poolID   atomic.Int64
}

// RefCount implements interface
func (b *Base) RefCount() int {
	return int(b.refCount.Load())
}

// PoolID implements interface
func (b *Base) PoolID() int {
	return int(b.poolID.Load())
}

func (b *Base) base() *Base {
	return b
}

func (b *Base) addRef() {
	b.refCount.Add(1)
}

// decRef never takes the count below zero.
func (b *Base) decRef() {
	for {
		count := b.refCount.Load()
		if count <= 0 || b.refCount.CompareAndSwap(count, count-1) {
			return
		}
	}
}

func (b *Base) setPoolID(index int) {
	b.poolID.Store(int64(index))
}

// NewBlob wraps raw bytes read from loc into a Resource.
func NewBlob(loc Location, data []byte) *Blob {
	return &Blob{
		location: loc.Clone(),
		data:     data,
	}
}

// Blob is a Resource holding the raw contents of a location.
type Blob struct {
	Base

	location Location
	data     []byte
}

// Bytes returns the contents. The slice is owned by the Blob and
// becomes invalid after Release.
func (b *Blob) Bytes() []byte {
	return b.data
}

// Len returns the size of the contents in bytes.
func (b *Blob) Len() int {
	return len(b.data)
}

// Location returns where the contents were read from.
func (b *Blob) Location() Location {
	return b.location
}

// Release implements interface
func (b *Blob) Release() {
	b.data = nil
}
