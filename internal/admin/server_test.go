package admin

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/gateway"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/model"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/observability"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/testutil/testlog"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/validation"
	"github.com/prometheus/client_golang/prometheus"
)

type stubGateway struct {
	ready  bool
	stats  gateway.Stats
	engine *validation.Engine
}

func (g stubGateway) Stats() gateway.Stats       { return g.stats }
func (g stubGateway) Ready() bool                { return g.ready }
func (g stubGateway) Engine() *validation.Engine { return g.engine }

func newTestServer(t *testing.T, gw stubGateway) (*Server, *observability.Metrics) {
	t.Helper()
	logger := testlog.Start(t)
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	if gw.engine == nil {
		gw.engine = validation.New(logger, metrics)
	}
	return New(Config{}, gw, metrics, reg, logger), metrics
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	s, _ := newTestServer(t, stubGateway{ready: false})

	rr := do(t, s, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected /health: %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, s, http.MethodGet, "/ready", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before serving, got %d", rr.Code)
	}

	s, _ = newTestServer(t, stubGateway{ready: true})
	if rr := do(t, s, http.MethodGet, "/ready", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 when ready, got %d", rr.Code)
	}
}

func TestStats(t *testing.T) {
	stats := gateway.Stats{Exchanges: 3, ReadingsAccepted: 5, Outcomes: map[string]uint64{"responded": 3}}
	s, _ := newTestServer(t, stubGateway{stats: stats})

	rr := do(t, s, http.MethodGet, "/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var got gateway.Stats
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got.Exchanges != 3 || got.ReadingsAccepted != 5 || got.Outcomes["responded"] != 3 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestValidateDryRun(t *testing.T) {
	s, _ := newTestServer(t, stubGateway{})
	body := `{"source":"s","readings":[
		{"sensor_id":"t01","type":"temperature","value":22.0,"unit":"C","timestamp":"2026-02-23T10:00:00"},
		{"sensor_id":"t02","type":"temperature","value":"hot","unit":"C","timestamp":"2026-02-23T10:00:00"}]}`

	rr := do(t, s, http.MethodPost, "/validate", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	var resp model.IngestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RequestID == "" || resp.AcceptedCount != 1 || resp.RejectedCount != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Field != "value" {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
}

func TestValidateRejectsMalformedPayload(t *testing.T) {
	s, _ := newTestServer(t, stubGateway{})
	if rr := do(t, s, http.MethodPost, "/validate", `[1,2,3]`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestMetricsEndpointExposesCollectors(t *testing.T) {
	s, metrics := newTestServer(t, stubGateway{})
	metrics.ObserveReading(true)
	_ = do(t, s, http.MethodGet, "/health", "")

	rr := do(t, s, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	out := rr.Body.String()
	for _, name := range []string{"ingest_validation_readings_total", "ingest_http_requests_total"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in metrics output", name)
		}
	}
}

func TestServeStopsOnContextCancel(t *testing.T) {
	s, _ := newTestServer(t, stubGateway{ready: true})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("get /health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not stop")
	}
}

func TestListenAndServeRequiresAddr(t *testing.T) {
	s, _ := newTestServer(t, stubGateway{})
	if err := s.ListenAndServe(context.Background()); err != ErrAddrRequired {
		t.Fatalf("expected ErrAddrRequired, got %v", err)
	}
}
