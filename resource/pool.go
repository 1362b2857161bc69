// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resource implements a lazily populated, reference counted
// resource cache. A Pool maps locations to stable indices, resolves
// which of its loaders can produce the resource behind a location the
// first time it is requested, and shares the loaded resource between
// consumers until the last one releases it.
//
// Consumers register a location once and keep the returned index:
//
//	idx := pool.AddFile("assets/cube.dae")
//	res, err := pool.Get(idx, true)
//	...
//	pool.Release(idx, true)
//
// All methods are safe to use concurrently. At most one load runs
// for a given index at any time.
package resource

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// entry binds a location to the resource loaded from it and
// the loader that produced it. A set resource implies a set loader.
type entry struct {
	location Location
	resource Resource
	loader   Loader
}

// NewPool creates an empty Pool. Loaders have to be added
// before anything can be fetched from it.
func NewPool(name string) *Pool {
	return &Pool{
		name:      name,
		log:       log.StandardLogger().WithField("pool", name),
		locations: make(map[string]int),
	}
}

// Pool owns registered locations, the resources loaded from them
// and the loader chain used to produce them. Indices handed out by
// the Pool stay valid until Clear is called.
type Pool struct {
	name string

	mutex      sync.Mutex
	log        *log.Entry
	entries    []*entry
	locations  map[string]int
	loaders    []Loader
	listeners  []Listener
	generation uint64
	closed     bool

	flight singleflight.Group
}

// Name returns the name given to the pool.
func (p *Pool) Name() string {
	return p.name
}

// SetLogger replaces the logger the pool reports to.
func (p *Pool) SetLogger(logger *log.Logger) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.log = logger.WithField("pool", p.name)
}

func (p *Pool) logger() *log.Entry {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.log
}

// AddLoader appends a loader to the chain. Loaders are probed in
// the order they were added, the first one to produce a resource
// for a location is bound to it. The pool takes ownership of the
// loader and closes it on Close if it implements io.Closer.
func (p *Pool) AddLoader(loader Loader) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.loaders = append(p.loaders, loader)
}

// AddListener registers a listener for Clear notifications.
func (p *Pool) AddListener(listener Listener) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.listeners = append(p.listeners, listener)
}

// RemoveListener unregisters the listener, it is a no-op for
// listeners that were never added.
func (p *Pool) RemoveListener(listener Listener) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for i, l := range p.listeners {
		if l == listener {
			p.listeners = append(p.listeners[:i], p.listeners[i+1:]...)
			return
		}
	}
}

// AddLocation registers loc and returns its index. Registering a
// location that is already known returns the existing index. Nothing
// is loaded until the index is fetched with Get.
func (p *Pool) AddLocation(loc Location) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	key := loc.Key()
	if index, ok := p.locations[key]; ok {
		return index
	}

	p.entries = append(p.entries, &entry{
		location: loc.Clone(),
	})
	index := len(p.entries) - 1
	p.locations[key] = index
	return index
}

// AddFile registers a file location, see AddLocation.
func (p *Pool) AddFile(filename string) int {
	return p.AddLocation(NewFileLocation(filename))
}

// Index returns the index of a file, registering it if needed.
func (p *Pool) Index(filename string) int {
	return p.AddFile(filename)
}

// Len returns the number of registered locations.
func (p *Pool) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.entries)
}

// Location returns the location registered at index.
func (p *Pool) Location(index int) (Location, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	e, err := p.entryAt(index)
	if err != nil {
		return nil, err
	}
	return e.location, nil
}

// Get returns the resource at index, loading it on first access.
// When inc is set the reference count of the resource is increased
// and the caller has to Release the index once done with it.
//
// A Pool without loaders can never produce anything, calling Get on
// one is a configuration error and panics.
func (p *Pool) Get(index int, inc bool) (Resource, error) {
	for {
		p.mutex.Lock()
		if p.closed {
			p.mutex.Unlock()
			return nil, ErrClosed
		}

		e, err := p.entryAt(index)
		if err != nil {
			p.log.WithField("index", index).Error(err)
			p.mutex.Unlock()
			return nil, err
		}

		if res := e.resource; res != nil {
			if inc {
				res.base().addRef()
			}
			res.base().setPoolID(index)
			p.mutex.Unlock()
			return res, nil
		}

		if len(p.loaders) == 0 {
			logger := p.log
			p.mutex.Unlock()
			logger.Panic("no loaders given for resource pool")
		}

		generation := p.generation
		p.mutex.Unlock()

		_, err, _ = p.flight.Do(flightKey(generation, index), func() (interface{}, error) {
			return nil, p.load(generation, index, e)
		})
		if err == errStale {
			continue
		}
		if err != nil {
			return nil, err
		}
	}
}

// GetAs fetches the resource at index like Pool.Get and asserts its type.
// On a type mismatch an acquired reference is given back.
func GetAs[T Resource](p *Pool, index int, inc bool) (T, error) {
	var zero T
	res, err := p.Get(index, inc)
	if err != nil {
		return zero, err
	}
	typed, ok := res.(T)
	if !ok {
		if inc {
			p.Release(index, true)
		}
		return zero, errors.Wrapf(ErrWrongType, "resource #%d is %T, not %T", index, res, zero)
	}
	return typed, nil
}

// Release gives back a resource fetched with Get. With dec set the
// reference count is decreased. A loaded resource nobody holds is
// released and its slot returns to the unloaded state, the bound
// loader is kept so the next Get does not probe the chain again.
// Releasing an index that is not loaded does nothing.
func (p *Pool) Release(index int, dec bool) error {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return ErrClosed
	}

	e, err := p.entryAt(index)
	if err != nil {
		p.log.WithField("index", index).Error(err)
		p.mutex.Unlock()
		return err
	}

	res := e.resource
	if res == nil {
		p.mutex.Unlock()
		return nil
	}
	if dec {
		res.base().decRef()
	}
	if res.RefCount() > 0 {
		p.mutex.Unlock()
		return nil
	}

	e.resource = nil
	logger := p.log.WithFields(log.Fields{
		"index":    index,
		"location": e.location.Filename(),
	})
	p.mutex.Unlock()

	res.Release()
	logger.Debug("resource unloaded")
	return nil
}

// Clear notifies listeners and then discards every entry. Resources
// still referenced are reported as leaks and released regardless.
// Indices handed out before are invalid afterwards, registration
// starts from zero again.
func (p *Pool) Clear() {
	p.mutex.Lock()
	listeners := make([]Listener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mutex.Unlock()

	for _, l := range listeners {
		l.PoolCleared(p)
	}

	p.mutex.Lock()
	var loaded []Resource
	for _, e := range p.entries {
		if e.resource == nil {
			continue
		}
		// Report all of them instead of stopping at the first.
		if e.resource.RefCount() > 0 {
			p.log.WithFields(log.Fields{
				"location": e.location.Filename(),
				"refCount": e.resource.RefCount(),
			}).Warn("resource leak")
		}
		loaded = append(loaded, e.resource)
		e.resource = nil
	}
	p.entries = nil
	p.locations = make(map[string]int)
	p.generation++
	p.mutex.Unlock()

	for _, res := range loaded {
		res.Release()
	}
}

// Close logs statistics, clears the pool and closes its loaders.
// The pool is marked closed first, Get and Release fail with
// ErrClosed from then on, listeners notified by the final Clear
// included.
func (p *Pool) Close() error {
	p.mutex.Lock()
	p.closed = true
	loaders := p.loaders
	p.loaders = nil
	logger := p.log
	p.mutex.Unlock()

	logger.Info("pool destroyed")
	p.LogStatistics()
	p.Clear()

	var result error
	for _, loader := range loaders {
		if c, ok := loader.(io.Closer); ok {
			if err := c.Close(); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "closing %T", loader))
			}
		}
	}
	return result
}

// entryAt has to be called with the mutex held.
func (p *Pool) entryAt(index int) (*entry, error) {
	if index < 0 || index >= len(p.entries) {
		return nil, &Error{
			Kind: ErrIndexOverflow,
			Msg:  "tried to access index " + strconv.Itoa(index) + ", only " + strconv.Itoa(len(p.entries)) + " items in pool " + p.name,
		}
	}
	return p.entries[index], nil
}

// load resolves the resource of e outside of the mutex and installs
// it before returning, so concurrent callers waiting on the same
// flight find it loaded.
func (p *Pool) load(generation uint64, index int, e *entry) error {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return ErrClosed
	}
	if p.generation != generation {
		p.mutex.Unlock()
		return errStale
	}
	if e.resource != nil {
		p.mutex.Unlock()
		return nil
	}
	loc := e.location
	loader := e.loader
	loaders := make([]Loader, len(p.loaders))
	copy(loaders, p.loaders)
	p.mutex.Unlock()

	var (
		res   Resource
		cause error
	)
	if loader != nil {
		// Bound before, only the same loader is asked again.
		res, cause = loader.Load(loc)
	} else {
		loader, res, cause = probe(loaders, loc)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed || p.generation != generation {
		if res != nil {
			res.Release()
		}
		if p.closed {
			return ErrClosed
		}
		return errStale
	}

	logger := p.log.WithFields(log.Fields{
		"index":    index,
		"location": loc.Filename(),
	})

	if loader == nil && cause == nil {
		err := &Error{
			Kind: ErrNotFound,
			Msg:  "no suitable loader was found for resource #" + strconv.Itoa(index) + "<" + loc.Filename() + "> in pool " + p.name,
		}
		logger.Error(err)
		return err
	}

	if res == nil {
		err := &Error{
			Kind:  ErrNotFound,
			Msg:   "no loader was able to load the requested resource #" + strconv.Itoa(index) + "<" + loc.Filename() + "> in pool " + p.name,
			Cause: cause,
		}
		logger.Error(err)
		return err
	}

	e.loader = loader
	e.resource = res
	logger.WithField("loader", loaderName(loader)).Debug("resource loaded")
	return nil
}

// probe offers loc to every loader in order and stops at the first
// one that produces a resource. A loader error ends the probe
// without binding anything.
func probe(loaders []Loader, loc Location) (Loader, Resource, error) {
	for _, l := range loaders {
		res, err := l.Load(loc)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s", loaderName(l))
		}
		if res != nil {
			return l, res, nil
		}
	}
	return nil, nil, nil
}

func flightKey(generation uint64, index int) string {
	return strconv.FormatUint(generation, 10) + "/" + strconv.Itoa(index)
}

func loaderName(l Loader) string {
	if s, ok := l.(interface{ String() string }); ok {
		return s.String()
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", l), "*")
}
