package app

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"screen-sniper/src/hotkey"
)

// Registrar is the part of *hotkey.Registry the app binds through.
type Registrar interface {
	Register(identifier string, shortcut hotkey.Shortcut, handler func()) error
	Unregister(identifier string)
	Bindings() map[string]hotkey.Shortcut
}

// BindShortcuts registers every configured action. Handlers fire on the hook
// goroutine and hop onto the UI loop before touching the app. A failing action
// is logged and skipped so the rest still bind; the failures are returned joined.
func (a *App) BindShortcuts(reg Registrar, shortcuts map[string]hotkey.Shortcut) error {
	names := make([]string, 0, len(shortcuts))
	for name := range shortcuts {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := a.bindShortcut(reg, name, shortcuts[name]); err != nil {
			log.Printf("app: shortcut %s not bound: %v", name, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) bindShortcut(reg Registrar, action string, sc hotkey.Shortcut) error {
	if !KnownAction(action) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	err := reg.Register(action, sc, func() {
		a.opts.Dispatcher.Post(func() {
			if err := a.Perform(action); err != nil {
				log.Printf("app: %v", err)
			}
		})
	})
	if err != nil {
		return fmt.Errorf("%s (%s): %w", action, sc, err)
	}
	log.Printf("app: %s bound to %s", action, sc)
	return nil
}

// Rebind applies a new shortcut table against what reg actually holds: bound
// actions missing from next are unbound, and every action whose live binding
// differs or is absent is registered again, including ones that failed before.
func (a *App) Rebind(reg Registrar, next map[string]hotkey.Shortcut) error {
	live := reg.Bindings()
	for name := range live {
		if _, ok := next[name]; !ok {
			reg.Unregister(name)
			log.Printf("app: %s unbound", name)
		}
	}
	changed := make(map[string]hotkey.Shortcut)
	for name, sc := range next {
		if cur, ok := live[name]; ok && cur == sc {
			continue
		}
		changed[name] = sc
	}
	return a.BindShortcuts(reg, changed)
}
