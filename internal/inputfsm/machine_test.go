package inputfsm

import (
	"testing"
	"time"

	"deckmux/internal/appconfig"
	"deckmux/internal/engine"
	"deckmux/internal/registry"
)

type fakeSwitcher struct{ order []registry.ID }

func (f *fakeSwitcher) Rank(query string, entries []engine.SwitcherEntry) []registry.ID {
	return f.order
}

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func newTestMachine(t *testing.T) (*Machine, *engine.Engine, *time.Time) {
	t.Helper()
	now := time.Unix(0, 0)
	cfg := appconfig.Defaults()
	cfg.DisableClipboard = true
	eng := engine.New(cfg, nil, fixedClock(&now))
	m := NewMachine(eng, &fakeSwitcher{}, fixedClock(&now), cfg)
	return m, eng, &now
}

func TestCtrlBEntersPrefixWait(t *testing.T) {
	m, _, _ := newTestMachine(t)
	m.HandleKey(Key{Rune: 'b', Ctrl: true})
	if m.State().Kind != PrefixWait {
		t.Fatalf("state = %v, want PrefixWait", m.State().Kind)
	}
}

func TestPrefixTimeoutReturnsToNormal(t *testing.T) {
	m, _, now := newTestMachine(t)
	m.HandleKey(Key{Rune: 'b', Ctrl: true})
	*now = now.Add(2 * time.Second)
	m.Tick()
	if m.State().Kind != Normal {
		t.Fatalf("state = %v, want Normal after timeout", m.State().Kind)
	}
}

func TestPrefixQQuits(t *testing.T) {
	m, _, _ := newTestMachine(t)
	m.HandleKey(Key{Rune: 'b', Ctrl: true})
	m.HandleKey(Key{Rune: 'q'})
	if !m.Quit() {
		t.Fatalf("expected quit requested")
	}
}

func TestPrefixBracketEntersScrollback(t *testing.T) {
	m, eng, _ := newTestMachine(t)
	eng.Create("/bin/sh", nil, t.TempDir(), 24, 80)
	m.HandleKey(Key{Rune: 'b', Ctrl: true})
	m.HandleKey(Key{Rune: '['})
	if m.State().Kind != Scrollback {
		t.Fatalf("state = %v, want Scrollback", m.State().Kind)
	}
}

func TestScrollbackEscReturnsToNormal(t *testing.T) {
	m, eng, _ := newTestMachine(t)
	eng.Create("/bin/sh", nil, t.TempDir(), 24, 80)
	m.HandleKey(Key{Rune: 'b', Ctrl: true})
	m.HandleKey(Key{Rune: '['})
	m.HandleKey(Key{Named: "esc"})
	if m.State().Kind != Normal {
		t.Fatalf("state = %v, want Normal", m.State().Kind)
	}
}

func TestVisualSelectYankSetsStatusAndReturnsToScrollback(t *testing.T) {
	m, eng, _ := newTestMachine(t)
	eng.Create("/bin/sh", nil, t.TempDir(), 24, 80)
	m.HandleKey(Key{Rune: 'b', Ctrl: true})
	m.HandleKey(Key{Rune: '['})
	m.HandleKey(Key{Rune: 'v'})
	if m.State().Kind != VisualSelect {
		t.Fatalf("state = %v, want VisualSelect", m.State().Kind)
	}
	m.HandleKey(Key{Rune: 'y'})
	if m.State().Kind != Scrollback {
		t.Fatalf("state = %v, want Scrollback after yank", m.State().Kind)
	}
	if m.State().StatusText != "Yanked!" {
		t.Fatalf("status = %q", m.State().StatusText)
	}
}

func TestArrowKeyEncodingRespectsDECCKM(t *testing.T) {
	if got := string(bytesForKey(Key{Named: "up"}, false)); got != "\x1b[A" {
		t.Fatalf("CSI up = %q", got)
	}
	if got := string(bytesForKey(Key{Named: "up"}, true)); got != "\x1bOA" {
		t.Fatalf("SS3 up = %q", got)
	}
}

func TestDialogInputRenameConfirms(t *testing.T) {
	m, eng, _ := newTestMachine(t)
	id, _ := eng.Create("/bin/sh", nil, t.TempDir(), 24, 80)
	m.HandleKey(Key{Rune: 'b', Ctrl: true})
	m.HandleKey(Key{Rune: 'r'})
	for _, r := range "newname" {
		m.HandleKey(Key{Rune: r})
	}
	m.HandleKey(Key{Named: "enter"})
	if m.State().Kind != Normal {
		t.Fatalf("state = %v, want Normal", m.State().Kind)
	}
	if sess := eng.Registry().Get(id); sess == nil || sess.Name != "newname" {
		t.Fatalf("session not renamed: %+v", sess)
	}
}
