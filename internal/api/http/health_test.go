package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolStub struct{ err error }

func (t toolStub) CheckDependencies(context.Context) error { return t.err }

func getHealth(t *testing.T, deps HealthDeps, path string) HealthResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHealthHandler("buildwise-api", "1.2.3", deps).RegisterRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealth_AllUp(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	body := getHealth(t, HealthDeps{DB: up, Redis: up, Enhance: toolStub{}}, "/health")

	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "buildwise-api", body.Service)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, "up", body.DB)
	assert.Equal(t, "up", body.Redis)
	assert.Equal(t, "up", body.Enhance)
}

func TestHealth_Disabled(t *testing.T) {
	body := getHealth(t, HealthDeps{}, "/healthz")

	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "disabled", body.DB)
	assert.Equal(t, "disabled", body.Redis)
	assert.Equal(t, "disabled", body.Enhance)
}

func TestHealth_Down(t *testing.T) {
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })
	body := getHealth(t, HealthDeps{DB: down, Redis: down, Enhance: toolStub{err: errors.New("python3 not found")}}, "/health")

	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "down", body.DB)
	assert.Equal(t, "down", body.Redis)
	assert.Equal(t, "down", body.Enhance)
}
