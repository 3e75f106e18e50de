// Package tray provides a system tray menu for controlling the pose search.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSave     func()
	onSettings func()
	onQuit     func()
	enabled    bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuBest   *systray.MenuItem
	menuSteps  *systray.MenuItem
}

// New creates a new Tray. The search starts paused.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback called when the search is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSave sets the callback called when the save menu item is clicked.
func (t *Tray) OnSave(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSave = fn
}

// OnSettings sets the callback called when the dashboard menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand pose search")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume the search")
	systray.AddSeparator()

	t.menuBest = systray.AddMenuItem("Best: none", "Lowest error so far")
	t.menuBest.Disable()
	t.menuSteps = systray.AddMenuItem("Steps: 0", "Evaluations so far")
	t.menuSteps.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSave := systray.AddMenuItem("Save Best Pose", "Write the best pose and its render")
	menuSettings := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSave.ClickedCh:
				t.handleCallback(func() func() { return t.onSave })
			case <-menuSettings.ClickedCh:
				t.handleCallback(func() func() { return t.onSettings })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Searching"
	}
	return "○ Paused"
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleCallback runs the callback returned by get under the read lock.
func (t *Tray) handleCallback(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.handleCallback(func() func() { return t.onQuit })
	systray.Quit()
}

// SetEnabled updates the toggle without calling the toggle callback, for
// changes made elsewhere such as the HTTP API.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// SetProgress updates the best error and step count display. A nil best
// error shows that nothing has been evaluated yet.
func (t *Tray) SetProgress(best *float64, steps int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuBest != nil {
		if best == nil {
			t.menuBest.SetTitle("Best: none")
		} else {
			t.menuBest.SetTitle(fmt.Sprintf("Best: %.2f%%", *best*100))
		}
	}
	if t.menuSteps != nil {
		t.menuSteps.SetTitle(fmt.Sprintf("Steps: %d", steps))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
