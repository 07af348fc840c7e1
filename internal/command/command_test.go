package command

import (
	"strings"
	"testing"
)

type fakeBackend struct {
	calls []string
	opts  WindowOpts
	bound struct {
		noPrefix bool
		key, cmd string
		args     []string
	}
}

func (f *fakeBackend) NewWindow(client string, opts WindowOpts) error {
	f.calls = append(f.calls, "new-window")
	f.opts = opts
	return nil
}
func (f *fakeBackend) SplitWindow(client string, opts WindowOpts, vertical bool) error {
	f.calls = append(f.calls, "split-window")
	return nil
}
func (f *fakeBackend) KillPane(client string) error              { f.calls = append(f.calls, "kill-pane"); return nil }
func (f *fakeBackend) KillWindow(client string) error            { return nil }
func (f *fakeBackend) SelectPaneDirection(client, dir string) error {
	f.calls = append(f.calls, "select-pane:"+dir)
	return nil
}
func (f *fakeBackend) SelectPaneTarget(client, target string) error { return nil }
func (f *fakeBackend) SelectWindow(client, target string) error    { return nil }
func (f *fakeBackend) SelectLayout(client, kind string) error      { return nil }
func (f *fakeBackend) ResizePane(client string, amounts map[string]int, zoom bool) error {
	return nil
}
func (f *fakeBackend) RotateWindow(client, restrict string) error { return nil }
func (f *fakeBackend) SwapPane(client string, next bool) error    { return nil }
func (f *fakeBackend) BreakPane(client string) error              { return nil }
func (f *fakeBackend) DetachClient(client string) error           { return nil }
func (f *fakeBackend) SuspendClient(client string) error           { return nil }
func (f *fakeBackend) CommandPrompt(client, prompt, initial, template string) error { return nil }
func (f *fakeBackend) ConfirmBefore(client, prompt, cmd string) error              { return nil }
func (f *fakeBackend) BindKey(noPrefix bool, key, cmd string, args []string) error {
	f.bound.noPrefix, f.bound.key, f.bound.cmd, f.bound.args = noPrefix, key, cmd, args
	return nil
}
func (f *fakeBackend) UnbindKey(noPrefix bool, key string) error        { return nil }
func (f *fakeBackend) SendKeys(client string, keys []string) error      { return nil }
func (f *fakeBackend) SendPrefix(client string) error                   { return nil }
func (f *fakeBackend) CopyMode(client string, fromBottom bool) error    { return nil }
func (f *fakeBackend) PasteBuffer(client string) error                  { return nil }
func (f *fakeBackend) ClearHistory(client string) error                 { return nil }
func (f *fakeBackend) SetOption(client, name, value string, windowScope bool) error { return nil }
func (f *fakeBackend) SourceFile(client, path string) error              { return nil }
func (f *fakeBackend) ListKeys(client string) error                     { return nil }
func (f *fakeBackend) ListPanes(client string) error                    { return nil }
func (f *fakeBackend) ListWindows(client string) error                  { return nil }
func (f *fakeBackend) DisplayMessage(client, msg string) error          { return nil }
func (f *fakeBackend) DisplayPanes(client string) error                 { return nil }

func TestAliasResolution(t *testing.T) {
	r := NewRegistry()
	b := &fakeBackend{}
	if err := r.Dispatch(b, "c1", "neww -n foo"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(b.calls) != 1 || b.calls[0] != "new-window" {
		t.Fatalf("expected new-window via alias, got %v", b.calls)
	}
	if b.opts.Name != "foo" {
		t.Fatalf("name = %q, want foo", b.opts.Name)
	}
}

func TestUnknownCommandIsException(t *testing.T) {
	r := NewRegistry()
	b := &fakeBackend{}
	err := r.Dispatch(b, "c1", "bogus-command")
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*Exception); !ok {
		t.Fatalf("expected *Exception, got %T", err)
	}
}

func TestCommentLineIsIgnored(t *testing.T) {
	r := NewRegistry()
	b := &fakeBackend{}
	if err := r.Dispatch(b, "c1", "# a comment"); err != nil {
		t.Fatalf("comment should not error: %v", err)
	}
	if len(b.calls) != 0 {
		t.Fatalf("comment should not dispatch: %v", b.calls)
	}
}

func TestBindKeyInjectsSeparator(t *testing.T) {
	r := NewRegistry()
	b := &fakeBackend{}
	if err := r.Dispatch(b, "c1", `bind-key q confirm-before -p "kill?" kill-window`); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if b.bound.key != "q" {
		t.Fatalf("key = %q, want q", b.bound.key)
	}
	if b.bound.cmd != "confirm-before" {
		t.Fatalf("cmd = %q, want confirm-before", b.bound.cmd)
	}
	if strings.Join(b.bound.args, " ") != `-p kill? kill-window` {
		t.Fatalf("args = %v", b.bound.args)
	}
}

func TestTokenizationRespectsQuotes(t *testing.T) {
	r := NewRegistry()
	b := &fakeBackend{}
	if err := r.Dispatch(b, "c1", `new-window -n "my window"`); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if b.opts.Name != "my window" {
		t.Fatalf("name = %q, want %q", b.opts.Name, "my window")
	}
}
