package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/wire"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// Config controls the websocket listener that joystick clients (typically a
// browser using the Gamepad API) stream JSON messages into.
type Config struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	ReadLimit      int64    `yaml:"read_limit"`
}

func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8090"
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 64 << 10
	}
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	return nil
}

// Source accepts websocket connections on the input channel path, e.g.
// ws://host:8090/joy, and forwards every text frame as a joystick event.
type Source struct {
	cfg      Config
	path     string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	srv     *http.Server
	conns   map[*websocket.Conn]struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	out     chan<- *domain.JoystickEvent
	wg      sync.WaitGroup
	started bool
}

func NewSource(cfg Config, channel string) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	path := "/" + strings.TrimLeft(channel, "/")
	if path == "/" {
		return nil, fmt.Errorf("websocket source: %w", wire.ErrEmptyChannel)
	}

	s := &Source{
		cfg:   cfg,
		path:  path,
		conns: make(map[*websocket.Conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

// Handler exposes the upgrade endpoint so it can be mounted on another mux.
func (s *Source) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.serveWS)
	return mux
}

func (s *Source) Start(out chan<- *domain.JoystickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("websocket source already started")
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("websocket listen %s: %w", s.cfg.Addr, err)
	}

	s.bindLocked(out)
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv := s.srv
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("websocket_server_exited", "addr", s.cfg.Addr, "error", err)
		}
	}()
	return nil
}

func (s *Source) bindLocked(out chan<- *domain.JoystickEvent) {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.out = out
	s.started = true
}

func (s *Source) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	srv := s.srv
	s.srv = nil
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = srv.Shutdown(ctx)
	}
	s.wg.Wait()
	return err
}

func (s *Source) serveWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		http.Error(w, "source stopped", http.StatusServiceUnavailable)
		return
	}
	ctx, out := s.ctx, s.out
	s.mu.Unlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket_upgrade_failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(s.cfg.ReadLimit)

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	slog.Info("joystick_client_connected", "remote", r.RemoteAddr)
	s.readLoop(ctx, conn, out)
}

func (s *Source) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- *domain.JoystickEvent) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && ctx.Err() == nil {
				slog.Warn("joystick_client_read_failed", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		ev, err := wire.DecodeJoystick(data, time.Now())
		if err != nil {
			slog.Warn("joystick_message_skipped", "remote", conn.RemoteAddr().String(), "error", err)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case out <- ev:
		}
	}
}

func (s *Source) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

var _ ports.Source = (*Source)(nil)
