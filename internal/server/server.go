package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/HoneyDrunkStudios/gridkernel/grid"
	"github.com/HoneyDrunkStudios/gridkernel/id"
	"github.com/HoneyDrunkStudios/gridkernel/internal/client"
	"github.com/HoneyDrunkStudios/gridkernel/internal/config"
	"github.com/HoneyDrunkStudios/gridkernel/internal/logging"
	"github.com/HoneyDrunkStudios/gridkernel/operation"
	"github.com/HoneyDrunkStudios/gridkernel/propagation"
	"github.com/HoneyDrunkStudios/gridkernel/telemetry"
	"github.com/HoneyDrunkStudios/gridkernel/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server hosts one Grid node.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	node       *grid.NodeContext
	logger     *logging.Logger
	config     *config.Config
	metrics    *telemetry.Metrics
	registry   *prometheus.Registry
	factory    *operation.Factory
	propagator *propagation.Propagator
	tracer     *tracing.Tracer
	downstream *client.Downstream
}

// New builds the server and its collaborators from configuration.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	tags, err := cfg.LoadTags()
	if err != nil {
		return nil, err
	}

	node, err := grid.NewNodeContext(
		id.NodeID(cfg.Node.ID),
		cfg.Node.Version,
		id.StudioID(cfg.Node.StudioID),
		id.Environment(cfg.Node.Environment),
		tags,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build node context: %w", err)
	}
	logger = logger.WithNode(node)

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetricsWith(registry)
	factory := operation.NewFactory(telemetry.MultiSink{
		telemetry.NewZapSink(logger.Logger),
		metrics,
	})
	propagator := propagation.NewHTTP(node, propagation.WithObserver(metrics))
	tracer := tracing.New(cfg.Node.ID, logger.Logger)

	downstream := client.New(node, propagator, factory, client.Options{
		Timeout:    time.Duration(cfg.Downstr.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Downstr.MaxRetries,
	})

	s := &Server{
		node:       node,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
		registry:   registry,
		factory:    factory,
		propagator: propagator,
		tracer:     tracer,
		downstream: downstream,
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	if s.config.RateLimit.Enabled {
		router.Use(rateLimit(s.config.RateLimit))
	}
	router.Use(propagation.HTTPMiddleware(s.propagator, s.factory))

	router.GET("/health", s.handleHealth)
	router.GET("/ready", s.handleReady)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	{
		v1.GET("/context", s.handleContext)
		v1.POST("/fanout", s.handleFanout)
		v1.GET("/relay", s.handleRelay)
	}
	return router
}

// Run starts serving and marks the node Ready.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}

	if err := s.node.Advance(grid.StageReady); err != nil {
		return err
	}
	s.logger.Info("Grid node ready", zap.String("addr", addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close stops serving, walking the node through Stopping to Stopped.
func (s *Server) Close() error {
	_ = s.node.Advance(grid.StageStopping)
	s.logger.Info("Grid node stopping")

	var err error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = s.httpServer.Shutdown(ctx)
	}

	_ = s.node.Advance(grid.StageStopped)
	s.logger.Info("Grid node stopped")
	return err
}

// Node exposes the node context for the host process.
func (s *Server) Node() *grid.NodeContext { return s.node }

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"stage":    s.node.Stage().String(),
		"node":     s.node.NodeID().String(),
		"instance": s.node.InstanceID(),
		"uptime":   time.Since(s.node.StartedAt()).String(),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	if s.node.Stage() != grid.StageReady {
		c.JSON(http.StatusServiceUnavailable, gin.H{"stage": s.node.Stage().String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stage": s.node.Stage().String()})
}

// handleContext echoes the ambient context, mostly for interop debugging.
func (s *Server) handleContext(c *gin.Context) {
	gc := grid.Current(c.Request.Context())
	if gc == nil {
		c.JSON(http.StatusOK, gin.H{"context": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"correlationId": gc.CorrelationID().String(),
		"causationId":   gc.CausationID().String(),
		"nodeId":        gc.NodeID().String(),
		"baggage":       gc.Baggage().Map(),
	})
}

// handleFanout derives child contexts concurrently and runs one traced
// operation under each, demonstrating safe fan-out from a shared parent.
func (s *Server) handleFanout(c *gin.Context) {
	parent := grid.Current(c.Request.Context())
	if parent == nil {
		parent = grid.NewRoot(s.node)
	}

	const branches = 2
	children := make([]*grid.Context, branches)
	var wg sync.WaitGroup
	for i := 0; i < branches; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gc := parent.CreateChildContext("")
			children[i] = gc

			span := s.tracer.StartSpan(fmt.Sprintf("fanout-branch-%d", i))
			tracing.Annotate(span, gc)

			var err error
			op := s.factory.Begin(gc, fmt.Sprintf("fanout-branch-%d", i))
			defer func() {
				op.End(&err)
				if err != nil {
					tracing.MarkFailure(span, err)
				} else {
					tracing.MarkSuccess(span)
				}
				s.tracer.Submit(span)
			}()

			_ = op.AddMetadata("branch", operation.Int(int64(i)))
		}(i)
	}
	wg.Wait()

	out := make([]gin.H, branches)
	for i, gc := range children {
		out[i] = gin.H{
			"correlationId": gc.CorrelationID().String(),
			"causationId":   gc.CausationID().String(),
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"parent":   parent.CorrelationID().String(),
		"branches": out,
	})
}

// handleRelay forwards to another node through the downstream client, so
// the full inject path is exercisable end to end.
func (s *Server) handleRelay(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter required"})
		return
	}

	resp, err := s.downstream.Get(c.Request.Context(), url)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Data(resp.StatusCode(), resp.Header().Get("Content-Type"), resp.Body())
}
