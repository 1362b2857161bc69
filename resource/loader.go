// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

// Loader describes a resource loader mechanism.
type Loader interface {

	// Load tries to produce the resource found at loc. A loader that
	// does not handle loc declines by returning a nil Resource and a
	// nil error. An error means the loader accepted loc but could not
	// produce the resource.
	Load(loc Location) (Resource, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(loc Location) (Resource, error)

// Load implements interface
func (f LoaderFunc) Load(loc Location) (Resource, error) {
	return f(loc)
}

// Listener is notified when the contents of a Pool are discarded.
type Listener interface {

	// PoolCleared is called synchronously from Clear, before any
	// entry is destroyed. Listeners should drop everything they
	// hold from the pool.
	PoolCleared(p *Pool)
}
