package engine

import (
	"testing"
	"time"

	"deckmux/internal/appconfig"
	"deckmux/internal/screen"
)

type fakeNotifier struct {
	seen []NotificationRequest
}

func (f *fakeNotifier) Notify(req NotificationRequest) {
	f.seen = append(f.seen, req)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestEngine(t *testing.T, n *fakeNotifier) *Engine {
	t.Helper()
	cfg := appconfig.Defaults()
	cfg.DisableClipboard = true
	return New(cfg, n, fixedClock(time.Unix(0, 0)))
}

func TestCreateMakesSessionActive(t *testing.T) {
	e := newTestEngine(t, nil)
	id, err := e.Create("/bin/sh", nil, t.TempDir(), 24, 80)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.ActiveID() != id {
		t.Fatalf("ActiveID() = %v, want %v", e.ActiveID(), id)
	}
	if e.ActiveScreen() == nil {
		t.Fatalf("expected an active screen")
	}
}

func TestCloseActiveSelectsNeighbor(t *testing.T) {
	e := newTestEngine(t, nil)
	a, _ := e.Create("/bin/sh", nil, t.TempDir(), 24, 80)
	b, _ := e.Create("/bin/sh", nil, t.TempDir(), 24, 80)
	e.SelectByID(a)

	e.CloseActive()
	if e.ActiveID() != b {
		t.Fatalf("ActiveID() = %v, want %v", e.ActiveID(), b)
	}
	if e.Registry().Len() != 1 {
		t.Fatalf("registry len = %d, want 1", e.Registry().Len())
	}
}

func TestCloseActiveNoopWhenNoneActive(t *testing.T) {
	e := newTestEngine(t, nil)
	e.CloseActive() // must not panic
	if e.ActiveID() != 0 {
		t.Fatalf("expected no active session")
	}
}

func TestSelectNextWraps(t *testing.T) {
	e := newTestEngine(t, nil)
	a, _ := e.Create("/bin/sh", nil, t.TempDir(), 24, 80)
	e.Create("/bin/sh", nil, t.TempDir(), 24, 80)
	e.SelectByID(a)

	e.SelectNext()
	e.SelectNext()
	if e.ActiveID() != a {
		t.Fatalf("SelectNext did not wrap back to %v, got %v", a, e.ActiveID())
	}
}

func TestYankAndPasteRoundTrip(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Create("/bin/sh", nil, t.TempDir(), 24, 80)

	e.Yank("hello clipboard")
	if e.YankBuffer() != "hello clipboard" {
		t.Fatalf("YankBuffer() = %q", e.YankBuffer())
	}
	e.PasteToActive() // must not panic, writes to pty
}

func TestSearchableFieldsProjectsRegistry(t *testing.T) {
	e := newTestEngine(t, nil)
	dir := t.TempDir()
	id, err := e.Create("/bin/sh", nil, dir, 24, 80)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	e.SetNotes(id, "scratch work")

	fields := e.SearchableFields()
	if len(fields) != 1 {
		t.Fatalf("fields len = %d, want 1", len(fields))
	}
	if fields[0].Notes != "scratch work" || fields[0].Cwd != dir {
		t.Fatalf("unexpected entry: %+v", fields[0])
	}
}

func TestNotifyForwardsToNotifierAndMarksUnread(t *testing.T) {
	n := &fakeNotifier{}
	e := newTestEngine(t, n)
	a, _ := e.Create("/bin/sh", nil, t.TempDir(), 24, 80)
	b, _ := e.Create("/bin/sh", nil, t.TempDir(), 24, 80)
	e.SelectByID(a)

	e.notify(b, screen.NotificationEvent{Kind: screen.NotifyBell})

	if len(n.seen) != 1 {
		t.Fatalf("notifier saw %d requests, want 1", len(n.seen))
	}
	if sess := e.Registry().Get(b); sess == nil || !sess.UnreadNotification {
		t.Fatalf("expected unread flag set on background session")
	}
}
