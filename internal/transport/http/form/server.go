package formhttp

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"machpredict/internal/form"
	"machpredict/internal/logger"
	"machpredict/internal/model"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// StatusReporter lists per-tool model availability.
type StatusReporter interface {
	Status() []model.Status
}

// ChartRenderer turns an outcome into an HTML page of charts, or nil.
type ChartRenderer func(form.Outcome) ([]byte, error)

// Server serves the prediction form and its JSON API.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig describes the dependencies of the HTTP surface.
type ServerConfig struct {
	Addr   string
	Forms  *form.Service
	Models StatusReporter
	Charts ChartRenderer
}

// NewServer builds the gin engine with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Forms == nil {
		return nil, errors.New("form http server requires a form service")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8501"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	tmpl, err := template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	h := &handlers{forms: cfg.Forms, models: cfg.Models, charts: cfg.Charts}
	router.GET("/", h.page)
	router.POST("/predict", h.predictForm)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.register(router.Group("/api"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			c.Request.Method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
