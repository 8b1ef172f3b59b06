package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/capture-logs/capture-logs/internal/metrics"
	"github.com/capture-logs/capture-logs/internal/model"
	"github.com/capture-logs/capture-logs/internal/search"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrTLSConfig reports an incomplete TLS configuration.
var ErrTLSConfig = errors.New("tls: both certificate and key files are required")

// fetchFailed is the only error text a failed search exposes.
const fetchFailed = "Failed to fetch logs"

// Searcher runs one paged search.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (model.SearchPage, error)
}

// HealthStore is the narrow store contract used by the health endpoint.
type HealthStore interface {
	CountLogs(ctx context.Context, f model.Filter) (int64, error)
}

// Config controls listeners and shared dependencies.
type Config struct {
	// Addr is the plain HTTP listen address. Empty disables the plain listener.
	Addr string
	// TLSAddr is the HTTPS listen address, used when CertFile and KeyFile are set.
	TLSAddr  string
	CertFile string
	KeyFile  string

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// TLSEnabled reports whether a secured listener is configured.
func (c Config) TLSEnabled() bool {
	return c.CertFile != "" || c.KeyFile != ""
}

// Server serves the log search API on a plain and/or a TLS listener.
type Server struct {
	cfg      Config
	searcher Searcher
	store    HealthStore
	logger   *zap.Logger
	metrics  *metrics.Metrics

	mu        sync.Mutex
	servers   []*http.Server
	listeners []net.Listener
	startTime time.Time
}

// NewServer creates a server. Listeners are bound by Start.
func NewServer(cfg Config, searcher Searcher, store HealthStore) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	return &Server{
		cfg:       cfg,
		searcher:  searcher,
		store:     store,
		logger:    logger.Named("http"),
		metrics:   m,
		startTime: time.Now(),
	}
}

// Routes builds the gin engine with every route and middleware.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(s.observe())

	r.POST("/logs/search", s.handleSearch)
	// The browser client reaches the API through a dev proxy mounted at /api.
	r.POST("/api/logs/search", s.handleSearch)
	r.GET("/api/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return r
}

// Start binds the configured listeners. Certificate problems are returned
// here so a misconfigured TLS listener fails startup.
func (s *Server) Start() error {
	if s.cfg.Addr == "" && !s.cfg.TLSEnabled() {
		return errors.New("no listener configured")
	}

	var tlsConfig *tls.Config
	if s.cfg.TLSEnabled() {
		if s.cfg.CertFile == "" || s.cfg.KeyFile == "" {
			return ErrTLSConfig
		}
		cert, err := tls.LoadX509KeyPair(s.cfg.CertFile, s.cfg.KeyFile)
		if err != nil {
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	gin.SetMode(gin.ReleaseMode)
	handler := s.Routes()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Addr != "" {
		ln, err := net.Listen("tcp", s.cfg.Addr)
		if err != nil {
			return err
		}
		s.add(handler, ln)
	}
	if tlsConfig != nil {
		ln, err := net.Listen("tcp", s.cfg.TLSAddr)
		if err != nil {
			s.closeListeners()
			return err
		}
		s.add(handler, tls.NewListener(ln, tlsConfig))
	}

	s.startTime = time.Now()
	return nil
}

func (s *Server) add(handler http.Handler, ln net.Listener) {
	s.servers = append(s.servers, &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	})
	s.listeners = append(s.listeners, ln)
}

func (s *Server) closeListeners() {
	for _, ln := range s.listeners {
		ln.Close()
	}
	s.listeners = nil
	s.servers = nil
}

// Addrs returns the bound listener addresses, plain first.
func (s *Server) Addrs() []net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	addrs := make([]net.Addr, 0, len(s.listeners))
	for _, ln := range s.listeners {
		addrs = append(addrs, ln.Addr())
	}
	return addrs
}

// Run serves until ctx is cancelled or a listener fails. On the way out it
// stops accepting connections and waits for in-flight requests to finish.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	servers := append([]*http.Server(nil), s.servers...)
	listeners := append([]net.Listener(nil), s.listeners...)
	s.mu.Unlock()

	if len(servers) == 0 {
		return errors.New("server not started")
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range servers {
		srv, ln := servers[i], listeners[i]
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", ln.Addr(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")
		return s.Stop(context.Background())
	})

	return g.Wait()
}

// Stop closes the listeners and waits for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	servers := append([]*http.Server(nil), s.servers...)
	s.mu.Unlock()

	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Server) handleSearch(c *gin.Context) {
	var req search.Request
	if !bindOptionalJSON(c, &req) {
		return
	}

	page, err := s.searcher.Search(c.Request.Context(), req)
	if err != nil {
		s.logger.Error("POST /logs/search failed",
			zap.String("field", req.Field),
			zap.Error(err),
		)
		s.metrics.SearchFailures.Inc()
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: fetchFailed})
		return
	}

	s.metrics.SearchRows.Observe(float64(len(page.Data)))
	c.JSON(http.StatusOK, page)
}

func (s *Server) handleHealth(c *gin.Context) {
	logCount, err := s.store.CountLogs(c.Request.Context(), model.Filter{})
	if err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read health metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).String(),
		"log_count": logCount,
	})
}
