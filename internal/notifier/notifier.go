// Package notifier is the Notifier Port: a fire-and-forget desktop
// notification sink over github.com/gen2brain/beeep, with its own
// internal burst-dedup policy the engine never needs to know about.
package notifier

import (
	"log"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"deckmux/internal/engine"
)

// dedupWindow is how long an identical (session, title, body) notification
// is suppressed after being shown once.
const dedupWindow = 3 * time.Second

// Desktop sends NotificationRequests to the OS notification center.
type Desktop struct {
	mu   sync.Mutex
	last map[string]time.Time

	now func() time.Time
}

// New returns a Desktop notifier. now lets tests inject a deterministic
// clock; pass nil in production for time.Now.
func New(now func() time.Time) *Desktop {
	if now == nil {
		now = time.Now
	}
	return &Desktop{last: make(map[string]time.Time), now: now}
}

var _ engine.Notifier = (*Desktop)(nil)

// Notify shows req unless an identical-looking notification for the same
// session fired within dedupWindow.
func (d *Desktop) Notify(req engine.NotificationRequest) {
	key := dedupKey(req)

	d.mu.Lock()
	now := d.now()
	if last, ok := d.last[key]; ok && now.Sub(last) < dedupWindow {
		d.mu.Unlock()
		return
	}
	d.last[key] = now
	d.mu.Unlock()

	// beeep.Notify shells out to the OS notification center and can block;
	// the engine's single-threaded event loop must never wait on it.
	go func() {
		if err := beeep.Notify(req.Title, req.Body, ""); err != nil {
			log.Printf("notifier: %s: %v", req.ID, err)
		}
	}()
}

func dedupKey(req engine.NotificationRequest) string {
	return req.SessionName + "\x00" + req.Title + "\x00" + req.Body
}
