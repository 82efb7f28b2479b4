package ptyengine

import (
	"strings"
	"testing"
	"time"
)

func waitForOutput(t *testing.T, p *Port, id int, contains string) string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var all strings.Builder
	for time.Now().Before(deadline) {
		chunk, err := p.Read(id)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		all.Write(chunk)
		if strings.Contains(all.String(), contains) {
			return all.String()
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, got %q", contains, all.String())
	return ""
}

func TestSpawnWriteReadKill(t *testing.T) {
	p := NewPort()
	const id = 1
	if err := p.Spawn(id, "/bin/sh", nil, t.TempDir(), Size{Rows: 24, Cols: 80}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer p.Kill(id)

	if _, err := p.Write(id, []byte("echo marker-12345\n"), time.Second); err != nil {
		t.Fatalf("Write: %v", err)
	}
	waitForOutput(t, p, id, "marker-12345")
}

func TestResize(t *testing.T) {
	p := NewPort()
	const id = 1
	if err := p.Spawn(id, "/bin/sh", nil, t.TempDir(), Size{Rows: 24, Cols: 80}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer p.Kill(id)

	if err := p.Resize(id, Size{Rows: 40, Cols: 120}); err != nil {
		t.Fatalf("Resize: %v", err)
	}
}

func TestTryWait_ReapsExitCode(t *testing.T) {
	p := NewPort()
	const id = 1
	if err := p.Spawn(id, "/bin/sh", []string{"-c", "exit 7"}, t.TempDir(), Size{Rows: 24, Cols: 80}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer p.Kill(id)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if code, done, err := p.TryWait(id); err == nil && done {
			if code != 7 {
				t.Fatalf("exit code = %d, want 7", code)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("child never reaped")
}

func TestUnknownSession_ReturnsError(t *testing.T) {
	p := NewPort()
	if _, err := p.Read(42); err != ErrUnknownSession {
		t.Fatalf("Read(unknown) err = %v, want ErrUnknownSession", err)
	}
	if _, err := p.Write(42, []byte("x"), time.Second); err != ErrUnknownSession {
		t.Fatalf("Write(unknown) err = %v, want ErrUnknownSession", err)
	}
	if err := p.Resize(42, Size{Rows: 1, Cols: 1}); err != ErrUnknownSession {
		t.Fatalf("Resize(unknown) err = %v, want ErrUnknownSession", err)
	}
}

func TestKill_Idempotent(t *testing.T) {
	p := NewPort()
	const id = 1
	if err := p.Spawn(id, "/bin/sh", nil, t.TempDir(), Size{Rows: 24, Cols: 80}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	p.Kill(id)
	p.Kill(id) // must not panic
}

func TestResolveShell_SplitsEmbeddedArgs(t *testing.T) {
	t.Setenv("SHELL", "/bin/bash --login")
	cmd, args := ResolveShell()
	if cmd != "/bin/bash" || len(args) != 1 || args[0] != "--login" {
		t.Fatalf("ResolveShell() = %q, %v", cmd, args)
	}
}

func TestResolveShell_FallsBackWhenUnset(t *testing.T) {
	t.Setenv("SHELL", "")
	cmd, args := ResolveShell()
	if cmd != "/bin/sh" || args != nil {
		t.Fatalf("ResolveShell() = %q, %v, want /bin/sh, nil", cmd, args)
	}
}
