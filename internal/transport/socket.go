package transport

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// maxSocketAttempts bounds the bind-with-retry loop below. Each retry
// tries a different index-suffixed socket path in the same directory.
const maxSocketAttempts = 100

// socketProbeTimeout bounds the dial used to tell a live socket from a
// stale leftover file.
const socketProbeTimeout = 500 * time.Millisecond

// SocketDir returns the directory wmux keeps its session sockets and
// lock files in: $WMUX_TMPDIR, or $TMPDIR/wmux, or /tmp/wmux.
func SocketDir() string {
	if d := os.Getenv("WMUX_TMPDIR"); d != "" {
		return d
	}
	base := os.Getenv("TMPDIR")
	if base == "" {
		base = "/tmp"
	}
	return filepath.Join(base, "wmux")
}

// SocketPath returns the canonical socket path for a named session.
func SocketPath(dir, name string, index int) string {
	if index == 0 {
		return filepath.Join(dir, name+".sock")
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%d.sock", name, index))
}

// Bound is a successfully bound server socket plus the exclusive flock
// guarding its path, so the caller can release both together.
type Bound struct {
	Listener Listener
	Path     string
	lock     *flock.Flock
}

// Close releases the flock and closes the listener and backing socket
// file.
func (b *Bound) Close() error {
	err := b.Listener.Close()
	if b.lock != nil {
		b.lock.Unlock()
	}
	os.Remove(b.Path)
	return err
}

// Bind creates dir if needed and binds a Unix socket for name, retrying
// with an incrementing numeric suffix up to maxSocketAttempts times if
// the preferred path is already live. A flock alongside each candidate
// socket path distinguishes "stale socket file, safe to remove" from
// "another process holds this name" without racing another wmux
// process doing the same bind.
func Bind(dir, name string) (*Bound, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("transport: create socket dir: %w", err)
	}

	var lastErr error
	for i := 0; i < maxSocketAttempts; i++ {
		sockPath := SocketPath(dir, name, i)
		lockPath := sockPath + ".lock"

		lock := flock.New(lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			lastErr = err
			continue
		}
		if !locked {
			continue // another process owns this slot
		}

		if err := probeAndRemoveStale(sockPath); err != nil {
			lock.Unlock()
			lastErr = err
			continue
		}

		ln, err := net.Listen("unix", sockPath)
		if err != nil {
			lock.Unlock()
			lastErr = err
			continue
		}

		return &Bound{Listener: WrapListener(ln), Path: sockPath, lock: lock}, nil
	}
	return nil, fmt.Errorf("transport: could not bind a socket for %q after %d attempts: %w", name, maxSocketAttempts, lastErr)
}

// probeAndRemoveStale dials sockPath to check for a live listener
// before removing it. A successful dial means another process is
// actively serving on it; that is reported as an error rather than
// clobbered.
func probeAndRemoveStale(sockPath string) error {
	if _, err := os.Stat(sockPath); os.IsNotExist(err) {
		return nil
	}
	conn, err := net.DialTimeout("unix", sockPath, socketProbeTimeout)
	if err == nil {
		conn.Close()
		return fmt.Errorf("transport: socket %q is live", sockPath)
	}
	return os.Remove(sockPath)
}

// Dial connects to an existing socket.
func Dial(sockPath string) (Conn, error) {
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Session names a bound socket found on disk: the session name it was
// bound under and its full socket path.
type Session struct {
	Name string
	Path string
}

// List returns every live session socket in dir, sorted by name. A
// session whose socket file no longer accepts connections (the server
// crashed without cleaning up) is skipped.
func List(dir string) ([]Session, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var sessions []Session
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sock") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		conn, err := net.DialTimeout("unix", path, socketProbeTimeout)
		if err != nil {
			continue
		}
		conn.Close()
		sessions = append(sessions, Session{
			Name: strings.TrimSuffix(e.Name(), ".sock"),
			Path: path,
		})
	}
	return sessions, nil
}

// Find returns the path of the first live session whose bound name is
// name or name with a "-<n>" index suffix, or the sole live session if
// name is empty. It
// returns an error if no socket matches, or if name is empty and more
// than one session is live.
func Find(dir, name string) (string, error) {
	sessions, err := List(dir)
	if err != nil {
		return "", err
	}
	if name != "" {
		for _, s := range sessions {
			if s.Name == name || strings.HasPrefix(s.Name, name+"-") {
				return s.Path, nil
			}
		}
		return "", fmt.Errorf("transport: no session named %q", name)
	}
	switch len(sessions) {
	case 0:
		return "", fmt.Errorf("transport: no sessions running")
	case 1:
		return sessions[0].Path, nil
	default:
		return "", fmt.Errorf("transport: %d sessions running, specify one with -S", len(sessions))
	}
}
