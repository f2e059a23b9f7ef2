package server

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"

	"github.com/iWorld-y/niche_radar/app/display/internal/biz"
	"github.com/iWorld-y/niche_radar/app/display/internal/service"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/engine"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	eng, err := engine.NewEngine(search.Sources{
		Missing: map[string]string{search.SourceReddit: "No credentials"},
	}, engine.Options{})
	require.NoError(t, err)

	uc := biz.NewResearchUseCase(eng, nil, nil, log.DefaultLogger)
	svc := service.NewNicheService(uc, health.NewServer(), log.DefaultLogger)
	srv := NewHTTPServer(nil, svc, log.DefaultLogger)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func TestResearch_EmptyQueryIsBadRequest(t *testing.T) {
	ts := newTestServer(t)

	resp, err := nethttp.Post(ts.URL+"/v1/research", "application/json", strings.NewReader(`{"query":"  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	var body struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_CONFIGURATION", body.Reason)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := nethttp.Get(ts.URL + "/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	var report model.HealthReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, engine.AgentName, report.Agent)
	assert.False(t, report.Healthy)
	assert.Equal(t, "No credentials", report.Services[search.SourceReddit].Error)
}

func TestReportEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := nethttp.Get(ts.URL + "/v1/reports/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)

	resp, err = nethttp.Get(ts.URL + "/v1/reports?page=2")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusServiceUnavailable, resp.StatusCode)
}
