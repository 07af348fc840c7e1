// Package process owns a pane's PTY pair and child process: starting it,
// pumping its output through a stream.Stream into a screen.Screen, writing
// keystrokes and pasted text back, resizing, and reaping it on exit.
package process

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"

	"wmux/internal/screen"
	"wmux/internal/stream"
)

// ErrWriteTimeout is returned by WriteInput when the child is not reading
// its stdin and the kernel PTY buffer has filled.
var ErrWriteTimeout = errors.New("pty write timed out")

const defaultWriteTimeout = 2 * time.Second

// defaultPostponeLimit bounds how long a non-priority (unfocused) pane
// can withhold its output from Screen before PumpOutput flushes the
// backlog regardless, reattaching it to the redraw pipeline.
const defaultPostponeLimit = 1 * time.Second

// Process owns one pane's PTY, child process, output pump and Screen.
type Process struct {
	mu sync.Mutex

	ptm *os.File
	cmd *exec.Cmd

	Screen *screen.Screen
	stream *stream.Stream

	rows, cols int

	lastOutput time.Time
	terminated bool
	exitErr    error

	// HasPriority reports whether this pane's output should be fed
	// immediately; the server core wires it to whether the pane is its
	// window's active pane. A nil HasPriority always has priority (used
	// by tests and any caller that doesn't track focus).
	HasPriority func() bool

	// PostponeLimit caps how long PumpOutput will withhold a
	// non-priority pane's output from Screen before flushing it anyway,
	// so a backgrounded pane's scrollback can never fall permanently
	// behind. Defaults to one second; exposed for tests.
	PostponeLimit time.Duration

	onExit func(err error)
}

// StartOpts configures a new child process.
type StartOpts struct {
	Command  string
	Args     []string
	Dir      string
	Rows     int
	Cols     int
	ExtraEnv map[string]string
}

// Start opens a PTY pair, forks the configured command into it, and wires
// its output into a fresh Screen via a Stream. The screen starts at
// opts.Rows x opts.Cols; an unset dimension falls back to 24 rows or
// 120 columns.
func Start(opts StartOpts) (*Process, error) {
	rows, cols := opts.Rows, opts.Cols
	if rows <= 0 {
		rows = 24
	}
	if cols <= 0 {
		cols = 120
	}

	p := &Process{
		Screen:        screen.New(rows, cols),
		rows:          rows,
		cols:          cols,
		PostponeLimit: defaultPostponeLimit,
	}
	p.Screen.WriteProcessInput = func(b []byte) { p.writeRaw(b) }
	p.stream = stream.New(p.Screen)

	command := opts.Command
	if command == "" {
		command = defaultShell()
	}
	cmd := exec.Command(command, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = buildEnv(opts.ExtraEnv)

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}
	p.ptm = ptm
	p.cmd = cmd

	// Give the child a moment to finish its terminal setup (set raw mode,
	// install its own SIGWINCH handler) before any resize races it.
	time.Sleep(100 * time.Millisecond)

	return p, nil
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

func buildEnv(extra map[string]string) []string {
	env := make([]string, 0, len(os.Environ())+len(extra))
	for _, e := range os.Environ() {
		key := e
		if idx := strings.Index(e, "="); idx >= 0 {
			key = e[:idx]
		}
		if _, override := extra[key]; !override {
			env = append(env, e)
		}
	}
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

// Pid returns the child process id.
func (p *Process) Pid() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// PumpOutput reads child output until EOF or error, feeding it through
// Stream into Screen and invoking onData after each flush so the caller
// can schedule a redraw. It calls onExit once, when the read loop ends,
// with the terminal error (nil on clean EOF).
//
// While the pane has priority (HasPriority nil or true), every chunk is
// fed immediately. While it doesn't — a backgrounded pane the client
// isn't looking at — reads keep draining the PTY (so a saturating child
// never blocks on a full kernel buffer) but the bytes are coalesced into
// a pending backlog instead of being fed to Stream one chunk at a time,
// detaching this pane's output from the redraw pipeline so it can't
// starve a focused pane's keypresses of the shared server lock. The
// backlog is flushed — reattached — the moment priority returns, or
// after PostponeLimit regardless, so a pane left unfocused for a long
// generator run still catches up instead of falling behind forever.
func (p *Process) PumpOutput(onData func(), onExit func(err error)) {
	p.onExit = onExit
	buf := make([]byte, 4096)
	var pending []byte
	var postponedSince time.Time

	limit := p.PostponeLimit
	if limit <= 0 {
		limit = defaultPostponeLimit
	}

	flush := func(chunk []byte) {
		p.mu.Lock()
		p.lastOutput = time.Now()
		p.stream.Feed(chunk)
		p.mu.Unlock()
		if onData != nil {
			onData()
		}
	}

	for {
		n, err := p.ptm.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			if p.HasPriority == nil || p.HasPriority() {
				if len(pending) > 0 {
					chunk = append(pending, chunk...)
					pending = nil
				}
				postponedSince = time.Time{}
				flush(chunk)
			} else {
				if postponedSince.IsZero() {
					postponedSince = time.Now()
				}
				pending = append(pending, chunk...)
				if time.Since(postponedSince) >= limit {
					backlog := pending
					pending = nil
					postponedSince = time.Time{}
					flush(backlog)
				}
			}
		}
		if err != nil {
			if len(pending) > 0 {
				flush(pending)
			}
			p.finish(err)
			return
		}
	}
}

func (p *Process) finish(err error) {
	p.mu.Lock()
	p.terminated = true
	p.exitErr = err
	p.mu.Unlock()
	if p.onExit != nil {
		p.onExit(err)
	}
}

// Terminated reports whether the read loop has observed EOF/error.
func (p *Process) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

// IsIdle reports whether the child has produced no output for at least
// two seconds, used by the server core to throttle status-bar work.
func (p *Process) IsIdle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.lastOutput.IsZero() && time.Since(p.lastOutput) > 2*time.Second
}

// LastOutput returns the time the child last wrote to its pty, or the
// zero time if it hasn't produced any output yet.
func (p *Process) LastOutput() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastOutput
}

const (
	bracketedPasteStart = "\x1b[200~"
	bracketedPasteEnd   = "\x1b[201~"
)

// WriteInput encodes text as UTF-8 and writes it to the PTY master,
// honoring bracketed paste when paste is true and the screen has that
// mode enabled. Writes time out after a deadline so a hung child (not
// reading its stdin) cannot block the caller forever.
func (p *Process) WriteInput(text string, paste bool) (int, error) {
	payload := text
	if paste && p.Screen.Mode(screen.ModeBracketedPaste) {
		payload = bracketedPasteStart + text + bracketedPasteEnd
	}
	return p.writeTimeout([]byte(payload), defaultWriteTimeout)
}

func (p *Process) writeRaw(b []byte) {
	_, _ = p.writeTimeout(b, defaultWriteTimeout)
}

// writeTimeout runs the write in a goroutine so the caller can give up
// after a deadline if the kernel PTY buffer is full because the child
// isn't reading its stdin. EINTR is retried transparently by the Go
// runtime's file write path, matching the source's retry contract.
func (p *Process) writeTimeout(b []byte, timeout time.Duration) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := p.ptm.Write(b)
		ch <- result{n, err}
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.n, r.err
	case <-timer.C:
		return 0, ErrWriteTimeout
	}
}

// Resize issues the PTY size ioctl and resizes Screen to match.
func (p *Process) Resize(rows, cols int) {
	p.mu.Lock()
	p.rows, p.cols = rows, cols
	p.Screen.Resize(rows, cols)
	p.mu.Unlock()
	pty.Setsize(p.ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Size returns the process's current rows, cols.
func (p *Process) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rows, p.cols
}

// Signal sends sig to the child process.
func (p *Process) Signal(sig os.Signal) error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(sig)
}

// Kill forcibly terminates the child process.
func (p *Process) Kill() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// Close closes the PTY master, releasing its fd.
func (p *Process) Close() error {
	if p.ptm == nil {
		return nil
	}
	return p.ptm.Close()
}

// ContainsOSCQuery reports whether data includes an OSC 10/11 dynamic
// color query, used by callers that want to answer foreground/background
// queries out of band before the bytes reach Stream.
func ContainsOSCQuery(data []byte) (fg, bg bool) {
	return bytes.Contains(data, []byte("\x1b]10;?")), bytes.Contains(data, []byte("\x1b]11;?"))
}
