package tray

import "testing"

// Menu items only exist once systray is running, so these tests cover the
// state handling that works without a display.

func TestTray_Toggle(t *testing.T) {
	tr := New()
	if tr.IsEnabled() {
		t.Fatal("tray should start paused")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("toggle callbacks = %v, want [true false]", got)
	}
	if tr.IsEnabled() {
		t.Error("tray should be paused after two toggles")
	}
}

func TestTray_SetEnabledSkipsCallback(t *testing.T) {
	tr := New()
	called := false
	tr.OnToggle(func(bool) { called = true })

	tr.SetEnabled(true)
	if !tr.IsEnabled() {
		t.Error("SetEnabled(true) should enable")
	}
	if called {
		t.Error("SetEnabled should not call the toggle callback")
	}
}

func TestTray_Callbacks(t *testing.T) {
	tr := New()
	saved, opened := 0, 0
	tr.OnSave(func() { saved++ })
	tr.OnSettings(func() { opened++ })

	tr.handleCallback(func() func() { return tr.onSave })
	tr.handleCallback(func() func() { return tr.onSettings })
	tr.handleCallback(func() func() { return tr.onQuit })

	if saved != 1 || opened != 1 {
		t.Errorf("saved = %d, opened = %d, want 1 and 1", saved, opened)
	}
}

func TestTray_SetProgressBeforeReady(t *testing.T) {
	best := 0.1
	New().SetProgress(&best, 10)
	New().SetProgress(nil, 0)
}

func TestToggleTitle(t *testing.T) {
	if toggleTitle(true) == toggleTitle(false) {
		t.Error("titles should differ by state")
	}
}
