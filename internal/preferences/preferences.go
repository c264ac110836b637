// Package preferences stores the two UI settings that sit beside the
// gallery order: dark mode and the grid offset.
package preferences

import (
	"context"
	"fmt"
	"strconv"
)

const (
	// DarkModeKey holds "true" or "false".
	DarkModeKey = "darkMode"

	// GridOffsetKey holds the number of blank leading cells, 0 to GridColumns-1.
	GridOffsetKey = "gridOffset"

	// GridColumns is the width of the preview grid.
	GridColumns = 3
)

// Store is the key-value layer preferences are kept in.
type Store interface {
	GetPreference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
}

// Preferences reads and writes UI settings.
type Preferences struct {
	store      Store
	preferDark bool
}

// New creates Preferences over store. preferDark is reported as the dark
// mode setting until one has been stored.
func New(store Store, preferDark bool) *Preferences {
	return &Preferences{store: store, preferDark: preferDark}
}

// DarkMode returns the stored dark mode setting, or the default.
// An unreadable stored value falls back to the default.
func (p *Preferences) DarkMode(ctx context.Context) (bool, error) {
	v, ok, err := p.store.GetPreference(ctx, DarkModeKey)
	if err != nil {
		return p.preferDark, err
	}
	if !ok {
		return p.preferDark, nil
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return p.preferDark, nil
	}
	return on, nil
}

// SetDarkMode stores the dark mode setting.
func (p *Preferences) SetDarkMode(ctx context.Context, on bool) error {
	return p.store.SetPreference(ctx, DarkModeKey, strconv.FormatBool(on))
}

// ToggleDarkMode flips dark mode and returns the new value.
func (p *Preferences) ToggleDarkMode(ctx context.Context) (bool, error) {
	on, err := p.DarkMode(ctx)
	if err != nil {
		return on, err
	}
	if err := p.SetDarkMode(ctx, !on); err != nil {
		return on, err
	}
	return !on, nil
}

// GridOffset returns the stored grid offset. Missing or out of range values read as 0.
func (p *Preferences) GridOffset(ctx context.Context) (int, error) {
	v, ok, err := p.store.GetPreference(ctx, GridOffsetKey)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n >= GridColumns {
		return 0, nil
	}
	return n, nil
}

// SetGridOffset stores n, which must be in [0, GridColumns).
func (p *Preferences) SetGridOffset(ctx context.Context, n int) error {
	if n < 0 || n >= GridColumns {
		return fmt.Errorf("grid offset %d out of range 0..%d", n, GridColumns-1)
	}
	return p.store.SetPreference(ctx, GridOffsetKey, strconv.Itoa(n))
}

// CycleGridOffset advances the grid offset by one, wrapping to 0.
func (p *Preferences) CycleGridOffset(ctx context.Context) (int, error) {
	n, err := p.GridOffset(ctx)
	if err != nil {
		return n, err
	}
	next := (n + 1) % GridColumns
	if err := p.SetGridOffset(ctx, next); err != nil {
		return n, err
	}
	return next, nil
}
