package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/JeeerryZ/simuladordre/internal/api"
	"github.com/JeeerryZ/simuladordre/internal/config"
	"github.com/JeeerryZ/simuladordre/internal/model"
)

func TestMain(m *testing.M) {
	// genai 依赖的 opencensus 在 init 时启动常驻 worker
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type stubCalculator struct{}

func (stubCalculator) Calculate(context.Context, *model.ScenarioInput) (*model.Output, error) {
	return model.NewOutput(), nil
}

func (stubCalculator) Backend() string { return "stub" }

func newTestServer(t *testing.T, mutate func(*config.AppConfig)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	s := NewServer(cfg, api.NewHandler(api.Deps{Calculator: stubCalculator{}}), nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, s.Shutdown(ctx))
	})
	return s
}

func serve(s *Server, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_RoutesAndCORS(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, ":20261", s.Addr())

	w := serve(s, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, w.Body.String(), `"backend":"stub"`)

	w = serve(s, http.MethodOptions, "/api/calculate", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = serve(s, http.MethodGet, "/nada", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Rota não encontrada")
}

func TestServer_AllowOrigins(t *testing.T) {
	s := newTestServer(t, func(c *config.AppConfig) {
		c.Server.AllowOrigins = []string{"https://simulador.example"}
	})

	w := serve(s, http.MethodGet, "/api/options", map[string]string{"Origin": "https://simulador.example"})
	require.Equal(t, "https://simulador.example", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", w.Header().Get("Vary"))

	w = serve(s, http.MethodGet, "/api/options", map[string]string{"Origin": "https://outro.example"})
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_DevModeRedirectsPages(t *testing.T) {
	s := newTestServer(t, func(c *config.AppConfig) { c.Server.DevMode = true })

	w := serve(s, http.MethodGet, "/resultado", nil)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	require.Equal(t, devFrontend+"/resultado", w.Header().Get("Location"))

	w = serve(s, http.MethodGet, "/api/desconhecida", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAllowedOrigin(t *testing.T) {
	require.Equal(t, "*", allowedOrigin(nil, "https://a"))
	require.Equal(t, "*", allowedOrigin([]string{"*"}, ""))
	require.Equal(t, "https://a", allowedOrigin([]string{"https://a"}, "https://a"))
	require.Equal(t, "", allowedOrigin([]string{"https://a"}, ""))
}
