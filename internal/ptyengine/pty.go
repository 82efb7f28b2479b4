// Package ptyengine is the PTY Port: it spawns a shell process attached to a
// PTY master per session id and exposes non-blocking read / write / resize /
// reap / kill, mirroring the teacher's VT.StartPTY/PipeOutput/Resize shape
// but keyed by session id instead of one VT per process.
package ptyengine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/shlex"
)

// Size is a terminal's row/column extent.
type Size struct {
	Rows int
	Cols int
}

// ErrUnknownSession is returned by every operation given an id that was
// never spawned or was already reaped and forgotten.
var ErrUnknownSession = errors.New("ptyengine: unknown session")

// ErrWriteTimeout is returned when a write could not be queued within the
// port's write deadline — the child is treated as hung.
var ErrWriteTimeout = errors.New("ptyengine: write timed out")

type pty_ struct {
	mu      sync.Mutex
	master  *os.File
	cmd     *exec.Cmd
	size    Size
	readBuf []byte // reused per-session staging buffer, a few KiB

	exited   bool
	exitCode int
	waitOnce sync.Once
	waitCh   chan struct{}
}

// Port owns every live PTY master and child process, keyed by session id.
type Port struct {
	mu   sync.Mutex
	ptys map[int]*pty_
}

// NewPort returns an empty PTY Port.
func NewPort() *Port {
	return &Port{ptys: make(map[int]*pty_)}
}

// ResolveShell returns the shell to spawn: $SHELL if set (split as a
// command line in case it carries embedded arguments, e.g.
// SHELL="/bin/bash --login"), else "/bin/sh" with no arguments.
func ResolveShell() (string, []string) {
	return ResolveShellDefault("")
}

// ResolveShellDefault is ResolveShell but substitutes fallback (itself split
// the same way as $SHELL) for the hardcoded "/bin/sh" when $SHELL is unset,
// letting the config's default_shell knob override the built-in fallback.
// An empty fallback behaves exactly like ResolveShell.
func ResolveShellDefault(fallback string) (string, []string) {
	shellEnv := os.Getenv("SHELL")
	if shellEnv != "" {
		parts, err := shlex.Split(shellEnv)
		if err != nil || len(parts) == 0 {
			return shellEnv, nil
		}
		return parts[0], parts[1:]
	}

	if fallback == "" {
		return "/bin/sh", nil
	}
	parts, err := shlex.Split(fallback)
	if err != nil || len(parts) == 0 {
		return fallback, nil
	}
	return parts[0], parts[1:]
}

// Spawn starts command/args attached to a new PTY master of the given size,
// bound to id. id must be unused.
func (p *Port) Spawn(id int, command string, args []string, cwd string, size Size) error {
	cmd := exec.Command(command, args...)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	master, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(size.Rows),
		Cols: uint16(size.Cols),
	})
	if err != nil {
		return fmt.Errorf("spawn %s: %w", command, err)
	}

	ps := &pty_{
		master:  master,
		cmd:     cmd,
		size:    size,
		readBuf: make([]byte, 4096),
		waitCh:  make(chan struct{}),
	}

	p.mu.Lock()
	p.ptys[id] = ps
	p.mu.Unlock()

	go ps.reap()

	return nil
}

func (ps *pty_) reap() {
	err := ps.cmd.Wait()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	ps.mu.Lock()
	ps.exited = true
	ps.exitCode = code
	ps.mu.Unlock()
	close(ps.waitCh)
}

func (p *Port) get(id int) (*pty_, error) {
	p.mu.Lock()
	ps, ok := p.ptys[id]
	p.mu.Unlock()
	if !ok {
		return nil, ErrUnknownSession
	}
	return ps, nil
}

// Read returns whatever bytes are newly available for id without blocking.
// Returns (nil, nil) when nothing is ready or the child has exited.
func (p *Port) Read(id int) ([]byte, error) {
	ps, err := p.get(id)
	if err != nil {
		return nil, err
	}

	ps.master.SetReadDeadline(time.Now().Add(1 * time.Millisecond))
	n, err := ps.master.Read(ps.readBuf)
	if n > 0 {
		out := make([]byte, n)
		copy(out, ps.readBuf[:n])
		return out, nil
	}
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, nil
		}
		// Fatal I/O (EOF, closed master): treat as no more data, never
		// surface as an error — the caller learns about exit via TryWait.
		return nil, nil
	}
	return nil, nil
}

// Write queues bytes to the PTY master in order, failing if they cannot be
// queued within timeout.
func (p *Port) Write(id int, data []byte, timeout time.Duration) (int, error) {
	ps, err := p.get(id)
	if err != nil {
		return 0, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.exited {
		return 0, io.ErrClosedPipe
	}

	done := make(chan struct{})
	var n int
	var writeErr error
	go func() {
		n, writeErr = ps.master.Write(data)
		close(done)
	}()

	select {
	case <-done:
		return n, writeErr
	case <-time.After(timeout):
		return 0, ErrWriteTimeout
	}
}

// Resize propagates new dimensions to the child's PTY.
func (p *Port) Resize(id int, size Size) error {
	ps, err := p.get(id)
	if err != nil {
		return err
	}
	ps.mu.Lock()
	ps.size = size
	ps.mu.Unlock()
	return pty.Setsize(ps.master, &pty.Winsize{Rows: uint16(size.Rows), Cols: uint16(size.Cols)})
}

// TryWait returns (code, true) once the child has exited, or (0, false)
// while it is still running.
func (p *Port) TryWait(id int) (int, bool, error) {
	ps, err := p.get(id)
	if err != nil {
		return 0, false, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if !ps.exited {
		return 0, false, nil
	}
	return ps.exitCode, true, nil
}

// Kill best-effort terminates the child (SIGHUP then SIGKILL) and releases
// the PTY master. Idempotent; unknown ids are silently ignored.
func (p *Port) Kill(id int) {
	p.mu.Lock()
	ps, ok := p.ptys[id]
	if ok {
		delete(p.ptys, id)
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	ps.mu.Lock()
	alreadyExited := ps.exited
	ps.mu.Unlock()

	if !alreadyExited && ps.cmd.Process != nil {
		ps.cmd.Process.Signal(syscall.SIGHUP)
		select {
		case <-ps.waitCh:
		case <-time.After(200 * time.Millisecond):
			ps.cmd.Process.Kill()
		}
	}
	ps.master.Close()
}
