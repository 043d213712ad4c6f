package main

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/client"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/gateway"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/model"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/testutil/testlog"
)

func startGateway(t *testing.T) (string, int) {
	t.Helper()
	logger := testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	svc := gateway.NewServiceWithConfig(gateway.DefaultServiceConfig(), logger, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return host, p
}

func TestRunSendsSampleFile(t *testing.T) {
	host, port := startGateway(t)
	var out bytes.Buffer
	err := run(context.Background(), options{
		host:     host,
		port:     port,
		dataFile: filepath.Join("..", "..", "data", "sample_readings.json"),
		timeout:  5 * time.Second,
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Accepted     : 4", "Rejected     : 5", "[(empty)] sensor_id", "[i01] pump_status"} {
		if !strings.Contains(text, want) {
			t.Fatalf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestRunFailsWithoutServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	_ = ln.Close()
	p, _ := strconv.Atoi(port)

	err = run(context.Background(), options{
		host:     "127.0.0.1",
		port:     p,
		dataFile: filepath.Join("..", "..", "data", "sample_readings.json"),
		timeout:  time.Second,
	}, &bytes.Buffer{})
	if err == nil {
		t.Fatalf("expected failure against a closed port")
	}
}

func TestRunMissingDataFile(t *testing.T) {
	err := run(context.Background(), options{dataFile: filepath.Join(t.TempDir(), "none.json")}, &bytes.Buffer{})
	if err == nil {
		t.Fatalf("expected error for missing data file")
	}
}

func TestLoadClientConfigFlags(t *testing.T) {
	cfg, err := loadClientConfig(options{host: "10.1.1.1", port: 9100, source: "field_7", timeout: 1500 * time.Millisecond})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cc := cfg.ClientConfig()
	if cc.Address != "10.1.1.1:9100" || cfg.Source != "field_7" || cfg.TimeoutMS != 1500 {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Source == "" || cfg.DataFile == "" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if _, err := loadClientConfig(options{port: 99999}); err == nil {
		t.Fatalf("expected invalid port error")
	}
}

func TestPrintSummaryWithoutErrors(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, client.Result{Response: model.IngestResponse{RequestID: "req-1", AcceptedCount: 2, ProcessingTimeMS: 1.5}})
	text := out.String()
	if !strings.Contains(text, "Request ID   : req-1") || !strings.Contains(text, "Time (ms)    : 1.50") {
		t.Fatalf("unexpected summary:\n%s", text)
	}
	if strings.Contains(text, "Validation errors") {
		t.Fatalf("error section should be omitted:\n%s", text)
	}
}
