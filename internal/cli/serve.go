package cli

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"wmux/internal/config"
	"wmux/internal/server"
	"wmux/internal/transport"
)

// serveOpts configures a running server: where its socket lives, the
// startup config to apply, and where to log.
type serveOpts struct {
	sockDir  string
	name     string
	confFile string
	logger   *log.Logger
}

// runServer binds a socket and serves connections until the server's
// last window closes, at which point done closes and the socket is
// unbound. start-server uses it; standalone builds its own socketless
// server in runStandalone instead.
func runServer(opts serveOpts) (srv *server.Server, bound *transport.Bound, done <-chan struct{}, err error) {
	bound, err = transport.Bind(opts.sockDir, opts.name)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("bind socket: %w", err)
	}

	logger := opts.logger
	if logger == nil {
		logger = log.New(log.Writer(), "wmux: ", log.LstdFlags)
	}

	emptied := make(chan struct{})
	srv = server.New(server.Opts{
		Logger:   logger,
		SockPath: bound.Path,
		OnEmpty: func() {
			bound.Close()
			close(emptied)
		},
	})

	cfg, cfgErr := config.Load()
	if cfgErr == nil {
		_ = cfg.ApplyTo(srv, "")
	}
	if opts.confFile != "" {
		if cfg2, err := config.LoadFrom(opts.confFile); err == nil {
			_ = cfg2.ApplyTo(srv, "")
		}
		if err := config.SourceFile(opts.confFile, srv.Commands, srv, ""); err != nil {
			logger.Printf("warning: source %s: %v", opts.confFile, err)
		}
	}

	go srv.RunAutoRefresh()
	go acceptLoop(srv, bound)

	return srv, bound, emptied, nil
}

// acceptLoop accepts connections on bound and dispatches each to its
// request type until the listener closes.
func acceptLoop(srv *server.Server, bound *transport.Bound) {
	for {
		conn, err := bound.Listener.Accept()
		if err != nil {
			return
		}
		go handleConn(srv, conn)
	}
}

func handleConn(srv *server.Server, conn transport.Conn) {
	req, err := transport.ReadRequest(conn)
	if err != nil {
		conn.Close()
		return
	}

	switch req.Type {
	case transport.RequestListSessions:
		transport.SendResponse(conn, &transport.Response{OK: true, Sessions: []string{req.Session}})
		conn.Close()

	case transport.RequestRunCommand:
		clientID := uuid.NewString()
		if err := srv.Commands.Dispatch(srv, clientID, req.Command); err != nil {
			transport.SendResponse(conn, &transport.Response{OK: false, Error: err.Error()})
		} else {
			transport.SendResponse(conn, &transport.Response{OK: true})
		}
		conn.Close()

	case transport.RequestAttach:
		if err := transport.SendResponse(conn, &transport.Response{OK: true}); err != nil {
			conn.Close()
			return
		}
		serveAttachedClient(srv, conn, req)

	default:
		transport.SendResponse(conn, &transport.Response{OK: false, Error: "unknown request type"})
		conn.Close()
	}
}

// serveAttachedClient runs a single attached client's lifetime: register
// it with the server, push redraws to its frame writer whenever
// anything changes, and pump its input frames back through the
// key-binding router until it disconnects.
func serveAttachedClient(srv *server.Server, conn transport.Conn, req *transport.Request) {
	defer conn.Close()

	clientID := uuid.NewString()
	fw := &frameWriter{conn: conn}
	cl := srv.AttachClient(clientID, req.Rows, req.Cols, fw, req.ColorDepth)
	defer srv.DetachClientState(clientID)

	if req.DetachOthers {
		srv.DetachAllClients(clientID)
	}

	stop := make(chan struct{})
	defer close(stop)
	go pushRedraws(srv, cl, fw, stop)

	for {
		ft, payload, err := transport.ReadFrame(conn)
		if err != nil {
			return
		}
		switch ft {
		case transport.FrameData:
			for _, key := range splitKeys(payload) {
				srv.HandleKey(clientID, key)
			}
		case transport.FrameControl:
			handleControlFrame(srv, clientID, payload)
		}
	}
}

// frameWriter adapts a transport.Conn to server.OutputWriter, wrapping
// every render in a data frame.
type frameWriter struct {
	conn transport.Conn
}

func (fw *frameWriter) Write(p []byte) (int, error) {
	if err := transport.WriteFrame(fw.conn, transport.FrameData, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteControl pushes a JSON control message (mode change, suspend
// request) as its own frame, out of band from the data stream.
func (fw *frameWriter) WriteControl(p []byte) error {
	return transport.WriteFrame(fw.conn, transport.FrameControl, p)
}

// Close closes the client's connection; Server.DetachClient calls it to
// disconnect a socket-attached client.
func (fw *frameWriter) Close() error { return fw.conn.Close() }

var _ server.ControlWriter = (*frameWriter)(nil)
