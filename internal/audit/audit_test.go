package audit

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kobecorporation/kbsaas/internal/metrics"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

func TestLogWritesStructuredEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core))
	before := testutil.ToFloat64(metrics.AuditEvents.WithLabelValues(EventTenantCreated))

	Log(ctx, EventTenantCreated, logger.TenantID("t1"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "audit", entry.LoggerName)
	assert.Equal(t, EventTenantCreated, entry.ContextMap()["event"])
	assert.Equal(t, "t1", entry.ContextMap()["tenant_id"])
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AuditEvents.WithLabelValues(EventTenantCreated)))
}
