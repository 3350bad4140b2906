package core

import "errors"

// HandleID is the static identifier of a peripheral handle
type HandleID uint8

// MaxHandles is the size of the handle arena
const MaxHandles = 32

var (
	ErrLedgerSealed = errors.New("ledger is sealed")
	ErrNoOwners     = errors.New("handle registered without owning contexts")
	ErrHandleRange  = errors.New("handle id out of range")
)

// ConflictError reports a handle registered twice with different ceilings
type ConflictError struct {
	Handle    HandleID
	Existing  Priority
	Requested Priority
}

func (e *ConflictError) Error() string {
	return "configuration conflict on handle " + itoa(int(e.Handle)) +
		": ceiling " + itoa(int(e.Existing)) +
		" already registered, requested " + itoa(int(e.Requested))
}

type ledgerEntry struct {
	registered bool
	ceiling    Priority
	owners     []Context
}

// Ledger maps every peripheral handle to the contexts allowed to touch it
// and the priority ceiling derived from them.
// It is filled during setup and sealed before the idle loop starts.
type Ledger struct {
	entries [MaxHandles]ledgerEntry
	sealed  bool
}

// NewLedger creates an empty, unsealed ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// Register assigns owners to a handle. The ceiling is the highest owner
// priority. Registering the same handle again is allowed only if it yields
// the same ceiling; the owner sets are then merged.
func (l *Ledger) Register(h HandleID, owners ...Context) error {
	if l.sealed {
		return ErrLedgerSealed
	}
	if int(h) >= MaxHandles {
		return ErrHandleRange
	}
	if len(owners) == 0 {
		return ErrNoOwners
	}

	ceiling := IdlePriority
	for _, ctx := range owners {
		if ctx.Priority > ceiling {
			ceiling = ctx.Priority
		}
	}

	e := &l.entries[h]
	if e.registered {
		if e.ceiling != ceiling {
			return &ConflictError{Handle: h, Existing: e.ceiling, Requested: ceiling}
		}
		for _, ctx := range owners {
			if !e.owns(ctx) {
				e.owners = append(e.owners, ctx)
			}
		}
		return nil
	}

	e.registered = true
	e.ceiling = ceiling
	e.owners = append([]Context(nil), owners...)
	return nil
}

func (e *ledgerEntry) owns(ctx Context) bool {
	for _, o := range e.owners {
		if o == ctx {
			return true
		}
	}
	return false
}

// CeilingOf returns the priority ceiling of a handle.
// Unregistered handles report MaxPriority.
func (l *Ledger) CeilingOf(h HandleID) Priority {
	if int(h) >= MaxHandles || !l.entries[h].registered {
		return MaxPriority
	}
	return l.entries[h].ceiling
}

// Registered reports whether the handle has owners
func (l *Ledger) Registered(h HandleID) bool {
	return int(h) < MaxHandles && l.entries[h].registered
}

// Owners returns a copy of the owning contexts of a handle
func (l *Ledger) Owners(h HandleID) []Context {
	if !l.Registered(h) {
		return nil
	}
	return append([]Context(nil), l.entries[h].owners...)
}

// OwnedAt reports whether an owner of h runs at priority p
func (l *Ledger) OwnedAt(h HandleID, p Priority) bool {
	if !l.Registered(h) {
		return false
	}
	for _, ctx := range l.entries[h].owners {
		if ctx.Priority == p {
			return true
		}
	}
	return false
}

// Shared reports whether more than one context owns the handle.
// Only shared handles need a critical section.
func (l *Ledger) Shared(h HandleID) bool {
	return l.Registered(h) && len(l.entries[h].owners) > 1
}

// Handles lists the registered handles in ascending order
func (l *Ledger) Handles() []HandleID {
	var hs []HandleID
	for i := range l.entries {
		if l.entries[i].registered {
			hs = append(hs, HandleID(i))
		}
	}
	return hs
}

// Seal ends the configuration phase; the ledger is immutable afterwards
func (l *Ledger) Seal() {
	l.sealed = true
}

// Sealed reports whether the configuration phase has ended
func (l *Ledger) Sealed() bool {
	return l.sealed
}
