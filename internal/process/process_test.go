package process

import (
	"testing"
	"time"
)

func TestStartAndEcho(t *testing.T) {
	p, err := Start(StartOpts{Command: "/bin/cat", Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Close()

	done := make(chan struct{})
	dataCh := make(chan struct{}, 64)
	go p.PumpOutput(func() {
		select {
		case dataCh <- struct{}{}:
		default:
		}
	}, func(err error) { close(done) })

	if _, err := p.WriteInput("hi\n", false); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-dataCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed output")
	}

	if p.Screen.Cell(0, 0).Rune != 'h' {
		t.Fatalf("expected echoed 'h' at (0,0), got %q", p.Screen.Cell(0, 0).Rune)
	}

	p.Kill()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for process exit")
	}
}

func TestPumpOutputPostponesNonPriorityPaneThenFlushes(t *testing.T) {
	p, err := Start(StartOpts{Command: "/bin/cat", Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Close()

	p.PostponeLimit = 100 * time.Millisecond
	p.HasPriority = func() bool { return false }

	done := make(chan struct{})
	dataCh := make(chan struct{}, 64)
	go p.PumpOutput(func() {
		select {
		case dataCh <- struct{}{}:
		default:
		}
	}, func(err error) { close(done) })

	if _, err := p.WriteInput("x\n", false); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-dataCh:
		t.Fatal("non-priority pane flushed before PostponeLimit elapsed")
	case <-time.After(30 * time.Millisecond):
	}

	select {
	case <-dataCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for postponed output to flush")
	}

	if p.Screen.Cell(0, 0).Rune != 'x' {
		t.Fatalf("expected postponed output to eventually reach Screen, got %q", p.Screen.Cell(0, 0).Rune)
	}

	p.Kill()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for process exit")
	}
}

func TestResize(t *testing.T) {
	p, err := Start(StartOpts{Command: "/bin/cat", Rows: 24, Cols: 80})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Close()
	defer p.Kill()

	p.Resize(30, 100)
	rows, cols := p.Size()
	if rows != 30 || cols != 100 {
		t.Fatalf("size = (%d,%d), want (30,100)", rows, cols)
	}
	if p.Screen.Lines != 30 || p.Screen.Columns != 100 {
		t.Fatalf("screen size = (%d,%d), want (30,100)", p.Screen.Lines, p.Screen.Columns)
	}
}
