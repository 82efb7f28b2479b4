package notifier

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"deckmux/internal/engine"
)

func TestDedupSuppressesRepeatWithinWindow(t *testing.T) {
	now := time.Unix(0, 0)
	d := New(func() time.Time { return now })

	req := engine.NotificationRequest{ID: uuid.New(), SessionName: "s1", Title: "s1", Body: "bell"}
	d.Notify(req) // calls into beeep; on a headless CI box this is expected to no-op/err silently
	key := dedupKey(req)
	if _, ok := d.last[key]; !ok {
		t.Fatalf("expected dedup entry recorded")
	}

	before := d.last[key]
	now = now.Add(1 * time.Second)
	d.Notify(req)
	if d.last[key] != before {
		t.Fatalf("expected suppressed duplicate to not refresh timestamp")
	}
}

func TestDedupAllowsAfterWindowElapses(t *testing.T) {
	now := time.Unix(0, 0)
	d := New(func() time.Time { return now })

	req := engine.NotificationRequest{ID: uuid.New(), SessionName: "s1", Title: "s1", Body: "bell"}
	d.Notify(req)
	before := d.last[dedupKey(req)]

	now = now.Add(dedupWindow + time.Second)
	d.Notify(req)
	if d.last[dedupKey(req)] == before {
		t.Fatalf("expected fresh notification to refresh timestamp after window elapsed")
	}
}
