package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/fieldrate/internal/config"
	snapshotdomain "github.com/smallbiznis/fieldrate/internal/snapshot/domain"
	workorderdomain "github.com/smallbiznis/fieldrate/internal/workorder/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type capturePusher struct {
	gathered []string
}

func (p *capturePusher) Push(ctx context.Context, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	p.gathered = p.gathered[:0]
	for _, family := range families {
		p.gathered = append(p.gathered, family.GetName())
	}
	return nil
}

func TestReporterPushGathersUsageGauges(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&workorderdomain.WorkOrder{},
		&snapshotdomain.Snapshot{},
	))
	require.NoError(t, db.Exec(`CREATE TABLE organizations (id INTEGER PRIMARY KEY)`).Error)

	pusher := &capturePusher{}
	reporter := NewReporter(ReporterParams{
		Log:    zap.NewNop(),
		DB:     db,
		Config: config.Config{InstanceID: "inst-1"},
		Pusher: pusher,
	})
	require.NotNil(t, reporter)

	require.NoError(t, reporter.Push(context.Background()))
	assert.Contains(t, pusher.gathered, "fieldrate_usage_organizations")
	assert.Contains(t, pusher.gathered, "fieldrate_usage_work_orders")
	assert.Contains(t, pusher.gathered, "fieldrate_usage_billing_snapshots")
	assert.Contains(t, pusher.gathered, "fieldrate_usage_memory_bytes")
}

func TestNewReporterWithoutPusher(t *testing.T) {
	reporter := NewReporter(ReporterParams{Log: zap.NewNop()})
	assert.Nil(t, reporter)
	require.NoError(t, reporter.Push(context.Background()))
}

func TestRemoteWritePusherHeaders(t *testing.T) {
	var gotHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "fieldrate_usage_organizations"})
	registry.MustRegister(gauge)
	gauge.Set(3)

	pusher := NewRemoteWritePusher(server.URL, "secret")
	require.NoError(t, pusher.Push(context.Background(), registry))

	assert.Equal(t, "application/x-protobuf", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "snappy", gotHeaders.Get("Content-Encoding"))
	assert.Equal(t, "0.1.0", gotHeaders.Get("X-Prometheus-Remote-Write-Version"))
	assert.Equal(t, "Bearer secret", gotHeaders.Get("Authorization"))
}

func TestNewPusherDisabledWithoutEndpoint(t *testing.T) {
	cfg := config.Config{}
	cfg.Cloud.Metrics.Enabled = true
	cfg.Cloud.Metrics.Exporter = "prometheus_remote_write"
	assert.Nil(t, NewPusher(cfg, zap.NewNop()))
}
