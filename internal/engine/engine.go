// Package engine is the Terminal Use Case: it orchestrates the Session
// Registry, PTY Port, and Screen Port behind a single-threaded API, and is
// the seam the Notifier and Switcher collaborators attach to.
package engine

import (
	"log"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"deckmux/internal/appconfig"
	"deckmux/internal/ptyengine"
	"deckmux/internal/registry"
	"deckmux/internal/screen"
)

// NotificationRequest is the payload handed to the Notifier Port.
type NotificationRequest struct {
	ID          uuid.UUID
	SessionID   registry.ID
	SessionName string
	Title       string
	Body        string
	At          time.Time
}

// SwitcherEntry is the read-only projection the fuzzy Switcher scores.
type SwitcherEntry struct {
	ID    registry.ID
	Name  string
	Cwd   string
	Notes string
}

// Notifier is the fire-and-forget desktop notification collaborator.
type Notifier interface {
	Notify(req NotificationRequest)
}

// miniID is the fixed PTY Port / Screen key for the footer mini session. It
// is never a valid registry.ID (those are allocated from 1), so it can share
// the same screens map and the same Port without colliding with ordinary
// sessions, while staying out of the Registry's ordered session list.
const miniID registry.ID = -1

// Engine ties the Registry, PTY Port, and Screen Port together behind the
// operations a single-threaded event loop drives every tick.
type Engine struct {
	cfg appconfig.Config

	reg      *registry.Registry
	pty      *ptyengine.Port
	screens  map[registry.ID]*screen.Screen
	notifier Notifier

	active registry.ID       // 0 means "no active session"
	mini   *registry.Session // footer mini session record, nil if none running

	yank string

	pendingNotifications []NotificationRequest

	lastOutput   map[registry.ID]time.Time
	idleNotified map[registry.ID]bool

	now func() time.Time
}

// New constructs an Engine. now lets callers inject a deterministic clock in
// tests; pass nil in production to use time.Now.
func New(cfg appconfig.Config, notifier Notifier, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		cfg:          cfg,
		reg:          registry.New(),
		pty:          ptyengine.NewPort(),
		screens:      make(map[registry.ID]*screen.Screen),
		notifier:     notifier,
		lastOutput:   make(map[registry.ID]time.Time),
		idleNotified: make(map[registry.ID]bool),
		now:          now,
	}
}

// Create spawns a new session running command/args in cwd at the given
// terminal size and makes it active. A PtySpawn failure is fatal and
// returned to the caller unmodified; it is never absorbed.
func (e *Engine) Create(command string, args []string, cwd string, rows, cols int) (registry.ID, error) {
	sess := e.reg.Create(command, cwd)

	if err := e.pty.Spawn(int(sess.ID), command, args, cwd, ptyengine.Size{Rows: rows, Cols: cols}); err != nil {
		e.reg.Remove(sess.ID)
		return 0, err
	}

	e.screens[sess.ID] = screen.New(rows, cols, e.cfg.ScrollbackLines)
	e.lastOutput[sess.ID] = e.now()
	e.active = sess.ID
	return sess.ID, nil
}

// HasMini reports whether the footer mini session is currently running.
func (e *Engine) HasMini() bool { return e.mini != nil }

// MiniSession returns the footer mini session record, or nil if none is
// running.
func (e *Engine) MiniSession() *registry.Session { return e.mini }

// MiniScreen returns the footer mini session's Screen, or nil if none is
// running.
func (e *Engine) MiniScreen() *screen.Screen {
	if e.mini == nil {
		return nil
	}
	return e.screens[miniID]
}

// CreateMini spawns the footer mini session, a parallel Session + selector
// independent of the main session list (spec: "mini_session: optional
// Session + selector"). A no-op if one is already running. A PtySpawn
// failure is returned unmodified, matching Create.
func (e *Engine) CreateMini(command string, args []string, cwd string, rows, cols int) error {
	if e.mini != nil {
		return nil
	}
	if err := e.pty.Spawn(int(miniID), command, args, cwd, ptyengine.Size{Rows: rows, Cols: cols}); err != nil {
		return err
	}
	e.screens[miniID] = screen.New(rows, cols, e.cfg.ScrollbackLines)
	e.mini = &registry.Session{ID: miniID, Name: "mini", Cwd: cwd, Status: registry.RunningStatus()}
	return nil
}

// CloseMini kills the footer mini session, if any. A no-op otherwise.
func (e *Engine) CloseMini() {
	if e.mini == nil {
		return
	}
	e.pty.Kill(int(miniID))
	delete(e.screens, miniID)
	e.mini = nil
}

// WriteToMini sends bytes to the mini session's PTY. A no-op unless one is
// running, same silent-drop policy as WriteToActive.
func (e *Engine) WriteToMini(data []byte) {
	if e.mini == nil || !e.mini.Status.Running {
		return
	}
	e.writeTo(miniID, data)
}

// CloseActive kills and forgets the active session, then selects a
// neighbor. A no-op (NoActiveSession, silently ignored) if nothing is active.
func (e *Engine) CloseActive() {
	if e.active == 0 {
		return
	}
	e.closeSession(e.active)
}

func (e *Engine) closeSession(id registry.ID) {
	idx := e.reg.IndexOf(id)
	e.pty.Kill(int(id))
	delete(e.screens, id)
	delete(e.lastOutput, id)
	delete(e.idleNotified, id)
	e.reg.Remove(id)

	if e.active == id {
		e.active = e.neighborAfterRemoval(idx)
	}
}

func (e *Engine) neighborAfterRemoval(removedIdx int) registry.ID {
	if e.reg.Len() == 0 {
		return 0
	}
	if removedIdx >= e.reg.Len() {
		removedIdx = e.reg.Len() - 1
	}
	if s := e.reg.AtIndex(removedIdx); s != nil {
		return s.ID
	}
	return 0
}

// SelectNext activates the next session in display order, wrapping around.
func (e *Engine) SelectNext() { e.selectBy(1) }

// SelectPrev activates the previous session in display order, wrapping
// around.
func (e *Engine) SelectPrev() { e.selectBy(-1) }

func (e *Engine) selectBy(delta int) {
	n := e.reg.Len()
	if n == 0 {
		return
	}
	idx := e.reg.IndexOf(e.active)
	if idx < 0 {
		idx = 0
	} else {
		idx = ((idx+delta)%n + n) % n
	}
	if s := e.reg.AtIndex(idx); s != nil {
		e.activate(s.ID)
	}
}

// SelectByIndex activates the session at the given display position, if any.
func (e *Engine) SelectByIndex(i int) {
	if s := e.reg.AtIndex(i); s != nil {
		e.activate(s.ID)
	}
}

// SelectByID activates a session by id directly, e.g. from the switcher.
func (e *Engine) SelectByID(id registry.ID) {
	if e.reg.Get(id) != nil {
		e.activate(id)
	}
}

func (e *Engine) activate(id registry.ID) {
	e.active = id
	if s := e.reg.Get(id); s != nil {
		s.UnreadNotification = false
	}
}

// ActiveID returns the currently active session, or 0 if none.
func (e *Engine) ActiveID() registry.ID { return e.active }

// ActiveScreen returns the active session's Screen, or nil if none is active.
func (e *Engine) ActiveScreen() *screen.Screen {
	if e.active == 0 {
		return nil
	}
	return e.screens[e.active]
}

// Screen returns a given session's Screen, or nil if unknown.
func (e *Engine) Screen(id registry.ID) *screen.Screen {
	return e.screens[id]
}

// Registry exposes the read-only session list for rendering.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// WriteToActive sends bytes to the active session's PTY. NoActiveSession and
// writes to an already-Exited session are both silently ignored, per spec's
// error policy: "keys to an exited session are a no-op, not an error." A
// PtyIo failure downgrades the session to Exited(-1) and is logged, never
// surfaced to the caller.
func (e *Engine) WriteToActive(data []byte) {
	if e.active == 0 {
		return
	}
	sess := e.reg.Get(e.active)
	if sess == nil || !sess.Status.Running {
		return
	}
	e.writeTo(e.active, data)
}

func (e *Engine) writeTo(id registry.ID, data []byte) {
	if _, err := e.pty.Write(int(id), data, 200*time.Millisecond); err != nil {
		e.absorbPtyIo(id, err)
	}
}

func (e *Engine) absorbPtyIo(id registry.ID, err error) {
	log.Printf("session %s: pty io error, marking exited: %v", id, err)
	e.markExited(id, -1)
}

func (e *Engine) markExited(id registry.ID, code int) {
	if id == miniID {
		if e.mini != nil {
			e.mini.Status = registry.Exited(code)
		}
		return
	}
	e.reg.MarkExited(id, code)
}

// PollAll drains pending PTY output into every session's Screen and the
// mini session's, reaps exited children, and collects the notifications
// produced along the way. Call once per event loop tick.
func (e *Engine) PollAll() {
	for _, id := range e.reg.IDs() {
		e.pollOne(id)
	}
	e.pollMini()
}

func (e *Engine) pollOne(id registry.ID) {
	sc := e.screens[id]
	if sc == nil {
		return
	}

	chunk, err := e.pty.Read(int(id))
	if err != nil {
		e.absorbPtyIo(id, err)
		return
	}
	if len(chunk) > 0 {
		sc.Feed(chunk)
		if resp := sc.TakeResponse(); len(resp) > 0 {
			e.writeTo(id, resp)
		}
		if cwd := sc.Cwd(); cwd != "" {
			e.reg.SetCwd(id, cwd)
		}
		for _, ev := range sc.TakeNotifications() {
			e.notify(id, ev)
		}
		e.lastOutput[id] = e.now()
		e.idleNotified[id] = false
	}

	if code, done, _ := e.pty.TryWait(int(id)); done {
		e.markExited(id, code)
	}

	if sess := e.reg.Get(id); sess != nil {
		e.checkIdle(id, sess)
	}
}

// pollMini mirrors pollOne for the footer mini session, with the one
// additional rule spec §4.3 calls out: "if the mini session exits, close it
// automatically."
func (e *Engine) pollMini() {
	if e.mini == nil {
		return
	}
	sc := e.screens[miniID]
	if sc == nil {
		return
	}

	chunk, err := e.pty.Read(int(miniID))
	if err != nil {
		e.absorbPtyIo(miniID, err)
		return
	}
	if len(chunk) > 0 {
		sc.Feed(chunk)
		if resp := sc.TakeResponse(); len(resp) > 0 {
			e.writeTo(miniID, resp)
		}
		for _, ev := range sc.TakeNotifications() {
			e.notifyMini(ev)
		}
	}

	if _, done, _ := e.pty.TryWait(int(miniID)); done {
		e.CloseMini()
	}
}

// checkIdle fires a one-shot idle notification for a non-active Running
// session once it has produced no output for cfg.IdleNotify, setting the
// session's unread flag (the sidebar's unread mark). Disabled when
// IdleNotify is zero (the default).
func (e *Engine) checkIdle(id registry.ID, sess *registry.Session) {
	if e.cfg.IdleNotify <= 0 || id == e.active || !sess.Status.Running {
		return
	}
	if e.idleNotified[id] {
		return
	}
	if e.now().Sub(e.lastOutput[id]) < e.cfg.IdleNotify {
		return
	}
	e.idleNotified[id] = true
	sess.UnreadNotification = true
	req := NotificationRequest{
		ID:          uuid.New(),
		SessionID:   id,
		SessionName: sess.Name,
		Title:       sess.Name,
		Body:        "idle",
		At:          e.now(),
	}
	e.pendingNotifications = append(e.pendingNotifications, req)
	if e.notifier != nil {
		e.notifier.Notify(req)
	}
}

// notify builds a NotificationRequest from a screen-level event, sets the
// session's unread flag when it is not active, appends the request to the
// queue drained by TakeNotifications, and forwards it to the Notifier Port.
func (e *Engine) notify(id registry.ID, ev screen.NotificationEvent) {
	sess := e.reg.Get(id)
	if sess == nil {
		return
	}
	if id != e.active {
		sess.UnreadNotification = true
	}

	title, body := formatNotification(sess.Name, ev)
	req := NotificationRequest{
		ID:          uuid.New(),
		SessionID:   id,
		SessionName: sess.Name,
		Title:       title,
		Body:        body,
		At:          e.now(),
	}
	e.pendingNotifications = append(e.pendingNotifications, req)
	if e.notifier != nil {
		e.notifier.Notify(req)
	}
}

// notifyMini mirrors notify for the mini session: it has no sidebar entry to
// badge, but its bell/OSC events still forward to the Notifier Port.
func (e *Engine) notifyMini(ev screen.NotificationEvent) {
	title, body := formatNotification("mini", ev)
	req := NotificationRequest{
		ID:          uuid.New(),
		SessionID:   miniID,
		SessionName: "mini",
		Title:       title,
		Body:        body,
		At:          e.now(),
	}
	e.pendingNotifications = append(e.pendingNotifications, req)
	if e.notifier != nil {
		e.notifier.Notify(req)
	}
}

func formatNotification(sessionName string, ev screen.NotificationEvent) (title, body string) {
	switch ev.Kind {
	case screen.NotifyBell:
		return sessionName, "bell"
	case screen.NotifyOSC9:
		return sessionName, ev.Text
	case screen.NotifyOSC777:
		if ev.Summary != "" {
			return ev.Summary, ev.Body
		}
		return sessionName, ev.Body
	default:
		return sessionName, ""
	}
}

// TakeNotifications returns and clears the queue of notifications raised
// since the last call.
func (e *Engine) TakeNotifications() []NotificationRequest {
	n := e.pendingNotifications
	e.pendingNotifications = nil
	return n
}

// ResizeAll propagates a new terminal size to every session's PTY and Screen.
func (e *Engine) ResizeAll(rows, cols int) {
	for _, id := range e.reg.IDs() {
		e.pty.Resize(int(id), ptyengine.Size{Rows: rows, Cols: cols})
		if sc := e.screens[id]; sc != nil {
			sc.Resize(rows, cols)
		}
	}
}

// Rename sets the display name of session id.
func (e *Engine) Rename(id registry.ID, name string) {
	e.reg.Rename(id, name)
}

// SetNotes sets the notes text of session id.
func (e *Engine) SetNotes(id registry.ID, notes string) {
	e.reg.SetNotes(id, notes)
}

// Yank stores text in the process-wide yank buffer and best-effort mirrors
// it to the OS clipboard. Clipboard failures are swallowed: the in-process
// buffer is always authoritative.
func (e *Engine) Yank(text string) {
	e.yank = text
	if !e.cfg.DisableClipboard {
		_ = clipboard.WriteAll(text)
	}
}

// PasteToActive writes the current yank buffer to the active session as
// input, wrapped in bracketed-paste markers if the Screen has that mode on.
func (e *Engine) PasteToActive() {
	if e.active == 0 || e.yank == "" {
		return
	}
	sc := e.screens[e.active]
	payload := []byte(e.yank)
	if sc != nil && sc.BracketedPaste() {
		wrapped := append([]byte("\x1b[200~"), payload...)
		wrapped = append(wrapped, []byte("\x1b[201~")...)
		payload = wrapped
	}
	e.writeTo(e.active, payload)
}

// YankBuffer returns the current process-wide yank buffer contents.
func (e *Engine) YankBuffer() string { return e.yank }

// SearchableFields projects the registry into the Switcher collaborator's
// input shape.
func (e *Engine) SearchableFields() []SwitcherEntry {
	ids := e.reg.IDs()
	out := make([]SwitcherEntry, 0, len(ids))
	for _, id := range ids {
		s := e.reg.Get(id)
		if s == nil {
			continue
		}
		out = append(out, SwitcherEntry{ID: id, Name: s.Name, Cwd: s.Cwd, Notes: s.Notes})
	}
	return out
}
