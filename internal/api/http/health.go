package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	checkUp       = "up"
	checkDown     = "down"
	checkDisabled = "disabled"
)

// Pinger is anything that can report its own reachability: the document
// store, the relational store, redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ToolChecker reports whether the enhancement tool can run.
type ToolChecker interface {
	CheckDependencies(ctx context.Context) error
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db,omitempty"`
	Redis     string    `json:"redis,omitempty"`
	Enhance   string    `json:"enhance,omitempty"`
}

type HealthDeps struct {
	DB      Pinger
	Redis   Pinger
	Enhance ToolChecker
}

type HealthHandler struct {
	serviceName string
	version     string
	deps        HealthDeps
	timeout     time.Duration
}

func NewHealthHandler(serviceName, version string, deps HealthDeps) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		deps:        deps,
		timeout:     time.Second,
	}
}

// HealthCheck always answers 200 so load balancers keep routing; the store
// is the only dependency that flips the overall status to degraded.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        ping(ctx, h.deps.DB),
		Redis:     ping(ctx, h.deps.Redis),
		Enhance:   checkDisabled,
	}
	if h.deps.Enhance != nil {
		resp.Enhance = checkUp
		if err := h.deps.Enhance.CheckDependencies(ctx); err != nil {
			resp.Enhance = checkDown
		}
	}
	if resp.DB == checkDown {
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return checkDisabled
	}
	if err := p.Ping(ctx); err != nil {
		return checkDown
	}
	return checkUp
}
