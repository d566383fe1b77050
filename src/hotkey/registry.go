// Package hotkey multiplexes one process-wide keyboard hook across any number of
// named, re-bindable shortcuts.
package hotkey

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrRegistrationFailed wraps OS refusals, e.g. a shortcut claimed by another process.
var ErrRegistrationFailed = errors.New("hotkey registration failed")

// Handle is a backend's token for one live OS registration.
type Handle interface{}

// Backend is the OS side of the registry. Install is called once, before the
// first Bind; dispatch may be called from any goroutine.
type Backend interface {
	Install(dispatch func(id uint32)) error
	Bind(id uint32, shortcut Shortcut) (Handle, error)
	Release(h Handle) error
	Uninstall() error
}

type orphan struct {
	identifier string
	b          *binding
}

type binding struct {
	id       uint32
	shortcut Shortcut
	handle   Handle
	handler  func()
}

// Registry maps action identifiers to OS hotkeys. It is safe for concurrent
// use; handlers run on the backend's goroutine.
type Registry struct {
	backend Backend

	// ops serializes register/unregister so backend calls never run under mu.
	ops       sync.Mutex
	installed bool
	nextID    uint32
	// orphans hold OS claims whose release failed; Close retries them.
	orphans []*orphan

	mu       sync.Mutex
	bindings map[string]*binding
	byID     map[uint32]string
}

func New(backend Backend) *Registry {
	return &Registry{
		backend:  backend,
		bindings: make(map[string]*binding),
		byID:     make(map[uint32]string),
	}
}

// Register binds shortcut to identifier, replacing any previous binding for the
// same identifier. On failure the identifier is left unbound.
func (r *Registry) Register(identifier string, shortcut Shortcut, handler func()) error {
	if err := shortcut.Validate(); err != nil {
		return err
	}

	r.ops.Lock()
	defer r.ops.Unlock()

	r.unregisterLocked(identifier)

	if !r.installed {
		if err := r.backend.Install(r.dispatch); err != nil {
			return fmt.Errorf("%w: installing hook: %v", ErrRegistrationFailed, err)
		}
		r.installed = true
	}

	// IDs are never reused, so a late event for a released binding cannot hit a new one.
	r.nextID++
	id := r.nextID

	handle, err := r.backend.Bind(id, shortcut)
	if err != nil {
		return fmt.Errorf("%w: %s (%s): %v", ErrRegistrationFailed, identifier, shortcut, err)
	}

	r.mu.Lock()
	r.bindings[identifier] = &binding{id: id, shortcut: shortcut, handle: handle, handler: handler}
	r.byID[id] = identifier
	r.mu.Unlock()

	log.Printf("hotkey: registered %s as %s (id %d)", identifier, shortcut, id)
	return nil
}

// Unregister releases identifier's binding. Unknown identifiers are ignored.
func (r *Registry) Unregister(identifier string) {
	r.ops.Lock()
	defer r.ops.Unlock()
	r.unregisterLocked(identifier)
}

func (r *Registry) unregisterLocked(identifier string) {
	r.mu.Lock()
	b, ok := r.bindings[identifier]
	if ok {
		delete(r.bindings, identifier)
		delete(r.byID, b.id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	if err := r.backend.Release(b.handle); err != nil {
		log.Printf("hotkey: failed to release %s (id %d), retrying on close: %v", identifier, b.id, err)
		r.orphans = append(r.orphans, &orphan{identifier: identifier, b: b})
		return
	}
	log.Printf("hotkey: unregistered %s (id %d)", identifier, b.id)
}

func (r *Registry) dispatch(id uint32) {
	r.mu.Lock()
	var handler func()
	if identifier, ok := r.byID[id]; ok {
		if b := r.bindings[identifier]; b != nil && b.id == id {
			handler = b.handler
		}
	}
	r.mu.Unlock()

	if handler != nil {
		handler()
	}
}

// Bindings returns a snapshot of identifier to shortcut.
func (r *Registry) Bindings() map[string]Shortcut {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Shortcut, len(r.bindings))
	for identifier, b := range r.bindings {
		out[identifier] = b.shortcut
	}
	return out
}

// Close releases every binding and removes the hook.
func (r *Registry) Close() error {
	r.ops.Lock()
	defer r.ops.Unlock()

	r.mu.Lock()
	live := r.bindings
	r.bindings = make(map[string]*binding)
	r.byID = make(map[uint32]string)
	r.mu.Unlock()

	var errs []error
	for _, o := range r.orphans {
		if err := r.backend.Release(o.b.handle); err != nil {
			errs = append(errs, fmt.Errorf("release %s (id %d): %w", o.identifier, o.b.id, err))
		}
	}
	r.orphans = nil
	for identifier, b := range live {
		if err := r.backend.Release(b.handle); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", identifier, err))
		}
	}
	if r.installed {
		if err := r.backend.Uninstall(); err != nil {
			errs = append(errs, fmt.Errorf("uninstall hook: %w", err))
		}
		r.installed = false
	}
	return errors.Join(errs...)
}
