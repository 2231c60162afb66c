package wire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tuannm99/recordset/internal/codec"
	"github.com/tuannm99/recordset/internal/rowset"
)

type ServerConfig struct {
	Addr    string
	Driver  string
	DSN     string
	Timeout time.Duration
}

// Server answers each connection's QueryRequest with the encoded result of
// running it against db.
type Server struct {
	db      *sql.DB
	timeout time.Duration
}

type ServerOption func(*Server)

// WithTimeout bounds the whole exchange on a connection (0 = no deadline).
func WithTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.timeout = d }
}

func NewServer(db *sql.DB, opts ...ServerOption) *Server {
	s := &Server{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run opens the configured database and serves until SIGINT or SIGTERM.
func Run(sc ServerConfig) error {
	db, err := sql.Open(sc.Driver, sc.DSN)
	if err != nil {
		return fmt.Errorf("open %s: %w", sc.Driver, err)
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", sc.Driver, err)
	}

	ln, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	slog.Info("recordset server listening", "addr", ln.Addr().String(), "driver", sc.Driver)

	return NewServer(db, WithTimeout(sc.Timeout)).Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or ln is closed, then
// waits for in-flight connections. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = ln.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				slog.Info("recordset server stopped")
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			slog.Warn("wire: accept", "err", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	remote := conn.RemoteAddr().String()

	if s.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.timeout))
	}

	var req QueryRequest
	if err := ReadFrame(conn, &req); err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Debug("wire: read request", "remote", remote, "err", err)
		}
		return
	}

	enc, fields, err := s.query(ctx, req)
	if err != nil {
		slog.Info("wire: query failed", "id", req.ID, "remote", remote, "err", err)
		_ = WriteFrame(conn, QueryResponse{ID: req.ID, Error: err.Error()})
		return
	}
	defer func() { _ = enc.Close() }()

	if err := WriteFrame(conn, QueryResponse{ID: req.ID, Fields: fields}); err != nil {
		slog.Debug("wire: write status", "id", req.ID, "err", err)
		return
	}
	n, err := enc.WriteTo(conn)
	if err != nil {
		// the client sees a truncated stream
		slog.Warn("wire: stream aborted", "id", req.ID, "bytes", n, "err", err)
		return
	}
	slog.Debug("wire: query served", "id", req.ID, "remote", remote, "bytes", n)
}

// query runs req and wraps the rows in an encoder that owns them.
func (s *Server) query(ctx context.Context, req QueryRequest) (*codec.Encoder, int, error) {
	rows, err := s.db.QueryContext(ctx, req.SQL, req.Args...)
	if err != nil {
		return nil, 0, err
	}
	cur, err := rowset.FromRows(rows)
	if err != nil {
		return nil, 0, err
	}
	enc, err := codec.NewEncoder(cur, codec.WithOwnership(true))
	if err != nil {
		return nil, 0, err
	}
	return enc, cur.FieldCount(), nil
}
