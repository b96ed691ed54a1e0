// Package web exposes the HTTP surface: identity pages, the admin
// upload, billing views, and the tracked static site.
package web

import (
	"context"
	"crypto/sha256"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"sitemeter/internal/config"
	"sitemeter/internal/format"
	"sitemeter/internal/publisher"
	"sitemeter/internal/store"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server wires the router, store, and publisher together.
type Server struct {
	cfg     config.Config
	store   *store.Store
	pub     *publisher.Publisher
	cookies *securecookie.SecureCookie
	tmpl    *template.Template
	handler http.Handler
}

// New builds a Server from its collaborators.
func New(cfg config.Config, st *store.Store, pub *publisher.Publisher) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"cost":     format.Cost,
		"duration": format.Duration,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	// Cookie signing key derived from the configured secret.
	hashKey := sha256.Sum256([]byte(cfg.SecretKey))

	s := &Server{
		cfg:     cfg,
		store:   st,
		pub:     pub,
		cookies: securecookie.New(hashKey[:], nil),
		tmpl:    tmpl,
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/info", s.handleInfo).Methods(http.MethodGet)
	r.HandleFunc("/admin", s.handleAdmin).Methods(http.MethodGet)
	r.HandleFunc("/admin/upload", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/billing", s.handleBilling).Methods(http.MethodGet)
	r.HandleFunc("/api/usage/{user_id}", s.handleUsage).Methods(http.MethodGet)

	// The published site is served through the current-site link and is
	// excluded from visit tracking.
	r.PathPrefix("/site/").HandlerFunc(s.handleSite).Methods(http.MethodGet, http.MethodHead)

	withCORS := cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return withCORS(s.trackVisits(r))
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Printf("sitemeter listening on http://localhost%s", s.cfg.Addr())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}
