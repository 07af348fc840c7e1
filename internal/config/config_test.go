package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wmux/internal/command"
)

func TestLoadFrom_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `prefix: "C-a"
status_interval: 2
history_limit: 5000
options:
  mouse: "on"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Prefix != "C-a" {
		t.Errorf("Prefix = %q, want C-a", cfg.Prefix)
	}
	if cfg.StatusInterval != 2 {
		t.Errorf("StatusInterval = %d, want 2", cfg.StatusInterval)
	}
	if cfg.HistoryLimit != 5000 {
		t.Errorf("HistoryLimit = %d, want 5000", cfg.HistoryLimit)
	}
	if cfg.Options["mouse"] != "on" {
		t.Errorf("Options[mouse] = %q, want on", cfg.Options["mouse"])
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.Prefix != "" {
		t.Errorf("expected zero-value config, got prefix %q", cfg.Prefix)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

// fakeBackend is a no-op command.Backend that records SetOption calls,
// enough surface for SourceFile's dispatch path to exercise.
type fakeBackend struct {
	set map[string]string
}

func (f *fakeBackend) NewWindow(string, command.WindowOpts) error                 { return nil }
func (f *fakeBackend) SplitWindow(string, command.WindowOpts, bool) error         { return nil }
func (f *fakeBackend) KillPane(string) error                                     { return nil }
func (f *fakeBackend) KillWindow(string) error                                   { return nil }
func (f *fakeBackend) SelectPaneDirection(string, string) error                  { return nil }
func (f *fakeBackend) SelectPaneTarget(string, string) error                     { return nil }
func (f *fakeBackend) SelectWindow(string, string) error                         { return nil }
func (f *fakeBackend) SelectLayout(string, string) error                         { return nil }
func (f *fakeBackend) ResizePane(string, map[string]int, bool) error             { return nil }
func (f *fakeBackend) RotateWindow(string, string) error                         { return nil }
func (f *fakeBackend) SwapPane(string, bool) error                               { return nil }
func (f *fakeBackend) BreakPane(string) error                                    { return nil }
func (f *fakeBackend) DetachClient(string) error                                 { return nil }
func (f *fakeBackend) SuspendClient(string) error                                { return nil }
func (f *fakeBackend) CommandPrompt(string, string, string, string) error        { return nil }
func (f *fakeBackend) ConfirmBefore(string, string, string) error                { return nil }
func (f *fakeBackend) BindKey(bool, string, string, []string) error              { return nil }
func (f *fakeBackend) UnbindKey(bool, string) error                              { return nil }
func (f *fakeBackend) SendKeys(string, []string) error                          { return nil }
func (f *fakeBackend) SendPrefix(string) error                                  { return nil }
func (f *fakeBackend) CopyMode(string, bool) error                              { return nil }
func (f *fakeBackend) PasteBuffer(string) error                                 { return nil }
func (f *fakeBackend) ClearHistory(string) error                                { return nil }
func (f *fakeBackend) SourceFile(string, string) error                          { return nil }
func (f *fakeBackend) ListKeys(string) error                                    { return nil }
func (f *fakeBackend) ListPanes(string) error                                   { return nil }
func (f *fakeBackend) ListWindows(string) error                                 { return nil }
func (f *fakeBackend) DisplayMessage(string, string) error                      { return nil }
func (f *fakeBackend) DisplayPanes(string) error                                { return nil }

func (f *fakeBackend) SetOption(clientID, name, value string, windowScope bool) error {
	if f.set == nil {
		f.set = make(map[string]string)
	}
	f.set[name] = value
	return nil
}

var _ command.Backend = (*fakeBackend)(nil)

func TestSourceFileDispatchesEachLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wmux.conf")
	data := "# a comment\nset-option status off\n\nset-option history-limit 100\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	registry := command.NewRegistry()
	b := &fakeBackend{}
	if err := SourceFile(path, registry, b, "c1"); err != nil {
		t.Fatalf("SourceFile: %v", err)
	}
	if b.set["status"] != "off" {
		t.Errorf("status = %q, want off", b.set["status"])
	}
	if b.set["history-limit"] != "100" {
		t.Errorf("history-limit = %q, want 100", b.set["history-limit"])
	}
}

func TestSourceFile_MissingFile(t *testing.T) {
	registry := command.NewRegistry()
	b := &fakeBackend{}
	if err := SourceFile("/nonexistent/path/wmux.conf", registry, b, "c1"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSourceFile_DispatchErrorIncludesLineNumber(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wmux.conf")
	data := "set-option status off\nnot-a-real-command\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	registry := command.NewRegistry()
	b := &fakeBackend{}
	err := SourceFile(path, registry, b, "c1")
	if err == nil {
		t.Fatal("expected dispatch error")
	}
	if got := err.Error(); !strings.Contains(got, "wmux.conf:2") {
		t.Errorf("error %q does not reference line 2", got)
	}
}

func TestApplyToPushesFieldsAsSetOption(t *testing.T) {
	status := false
	cfg := &Config{
		Prefix:         "C-b",
		Status:         &status,
		StatusInterval: 5,
		HistoryLimit:   2000,
		Options:        map[string]string{"mouse": "on"},
	}
	b := &fakeBackend{}
	if err := cfg.ApplyTo(b, "c1"); err != nil {
		t.Fatalf("ApplyTo: %v", err)
	}
	if b.set["prefix"] != "C-b" {
		t.Errorf("prefix = %q, want C-b", b.set["prefix"])
	}
	if b.set["status"] != "off" {
		t.Errorf("status = %q, want off", b.set["status"])
	}
	if b.set["status-interval"] != "5" {
		t.Errorf("status-interval = %q, want 5", b.set["status-interval"])
	}
	if b.set["history-limit"] != "2000" {
		t.Errorf("history-limit = %q, want 2000", b.set["history-limit"])
	}
	if b.set["mouse"] != "on" {
		t.Errorf("mouse = %q, want on", b.set["mouse"])
	}
}
