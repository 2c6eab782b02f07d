package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"finexpress/internal/cache"
	"finexpress/internal/core"
	"finexpress/internal/ledger"
	applog "finexpress/internal/log"
	"finexpress/internal/sheets"
	appweb "finexpress/web"
)

// Options tunes presentation, caching and rate limiting.
type Options struct {
	RecentLimit       int
	CurrencySymbol    string
	ViewCacheSize     int
	ViewCacheTTL      time.Duration
	RequestsPerMinute int
	Logger            *applog.Logger
	// Now is the clock used for the current-month default filter.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.RecentLimit <= 0 {
		o.RecentLimit = 10
	}
	if o.CurrencySymbol == "" {
		o.CurrencySymbol = "₹"
	}
	if o.ViewCacheSize <= 0 {
		o.ViewCacheSize = 100
	}
	if o.ViewCacheTTL <= 0 {
		o.ViewCacheTTL = 5 * time.Minute
	}
	if o.RequestsPerMinute <= 0 {
		o.RequestsPerMinute = 60
	}
	if o.Logger == nil {
		o.Logger = applog.New(applog.DefaultConfig())
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Server struct {
	http.Server
	store     *ledger.Store
	exporter  sheets.Exporter
	templates *template.Template
	logger    *applog.Logger
	opts      Options
	present   presenter

	// Views are keyed by ledger revision, so a mutation makes every
	// cached entry unreachable.
	views  *cache.LRUCache[ledger.View]
	caches *cache.Manager

	limiter *rateLimiter
	metrics *securityMetrics
	started time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. exporter may be nil when no spreadsheet is configured.
func NewServer(addr string, store *ledger.Store, exporter sheets.Exporter, opts Options) *Server {
	opts = opts.withDefaults()
	mux := http.NewServeMux()

	s := &Server{
		store:    store,
		exporter: exporter,
		logger:   opts.Logger.WithComponent(applog.ComponentHTTP),
		opts:     opts,
		present:  presenter{symbol: opts.CurrencySymbol},
		views:    cache.NewLRUCache[ledger.View](opts.ViewCacheSize, opts.ViewCacheTTL),
		caches:   cache.NewManager(opts.Logger.WithComponent(applog.ComponentCache).Slog()),
		limiter:  newRateLimiter(opts.RequestsPerMinute),
		metrics:  &securityMetrics{},
		started:  time.Now(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.caches.Register(s.views)
	s.caches.StartCleanup(10 * time.Minute)

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Dashboard
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /transactions", s.handleFormCreate)
	mux.HandleFunc("POST /transactions/{id}/delete", s.handleFormDelete)
	mux.HandleFunc("POST /import", s.handleFormImport)

	// JSON API
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/export/sheets", s.handleExportSheets)

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// middleware attaches the request logger, then applies security headers,
// scan detection and rate limiting, and logs completion.
func (s *Server) middleware(next http.Handler) http.Handler {
	guarded := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger := applog.FromContext(ctx)
		clientIP := extractClientIP(r)

		w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
		applySecurityHeaders(w)

		if detectSuspiciousRequest(r, s.metrics) {
			logger.WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		if isMutating(r.Method) && !s.limiter.allow(clientIP, s.metrics) {
			logger.WarnContext(ctx, "Rate limit exceeded", applog.FieldClientIP, clientIP, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			applog.LogHTTPEnd(ctx, r, http.StatusTooManyRequests, time.Since(start).Milliseconds(), clientIP)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		applog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})

	return applog.Middleware(s.logger)(applog.RequestIDMiddleware(requestID)(guarded))
}

// requestID returns the caller's X-Request-ID, assigning a fresh one when
// the header is absent.
func requestID(r *http.Request) string {
	id := sanitizeInput(r.Header.Get("X-Request-ID"))
	if id == "" || len(id) > 64 {
		id = generateRequestID()
	}
	r.Header.Set("X-Request-ID", id)
	return id
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) now() time.Time {
	return s.opts.Now()
}

// view returns the ledger view for spec, served from cache while the
// ledger revision is unchanged.
func (s *Server) view(ctx context.Context, spec core.FilterSpec) ledger.View {
	key := viewCacheKey(s.store.Revision(), spec)
	if v, ok := s.views.Get(key); ok {
		applog.FromContext(ctx).DebugContext(ctx, "View cache hit", applog.FieldMonth, spec.Month, applog.FieldCategory, spec.Category)
		return v
	}

	v := s.store.View(spec, s.opts.RecentLimit)
	// The revision may have moved between the two reads; key by the one
	// the view was actually computed from.
	s.views.Set(viewCacheKey(v.Revision, spec), v)
	return v
}

// invalidateViews drops every cached view after a mutation.
func (s *Server) invalidateViews() {
	s.views.Purge()
}

func viewCacheKey(rev uint64, spec core.FilterSpec) string {
	return strconv.FormatUint(rev, 10) + "|" + spec.Month + "|" + spec.Category
}
