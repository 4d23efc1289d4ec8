package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/noahxzhu/lighthouse/internal/mailer"
	"github.com/noahxzhu/lighthouse/internal/storage"
)

// Sender delivers a composed alert mail.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Options carries the per-deployment settings of the API.
type Options struct {
	AuthToken string
	DataKey   string
	From      mailer.Address
	Subject   string
	Debug     bool
}

type Server struct {
	store   storage.Store
	mail    Sender
	opts    Options
	logger  *zap.Logger
	metrics *Metrics
	router  *gin.Engine
	now     func() time.Time
}

func NewServer(store storage.Store, mail Sender, opts Options, logger *zap.Logger, reg *prometheus.Registry) (*Server, error) {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:   store,
		mail:    mail,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
		router:  gin.New(),
		now:     time.Now,
	}
	s.routes(reg)
	return s, nil
}

func (s *Server) routes(reg *prometheus.Registry) {
	s.router.Use(requestID(), s.logRequests(), s.metrics.instrument(), s.recoverJSON())

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	data := s.router.Group("/api/data", corsFor(http.MethodGet, http.MethodPut))
	data.OPTIONS("", handlePreflight)
	data.GET("", s.requireToken(), s.handleGetData)
	data.PUT("", s.requireToken(), s.handlePutData)

	alert := s.router.Group("/api/alert", corsFor(http.MethodPost))
	alert.OPTIONS("", handlePreflight)
	alert.POST("", s.requireToken(), s.handleAlert)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
