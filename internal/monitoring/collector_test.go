package monitoring

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.EventIngested()
	c.EventIngested()
	c.ClassifyPass()
	c.LogLinesSkipped(3)
	c.LogLinesSkipped(0) // no-op
	c.WebhookRejected()

	snap := c.Collect()
	assert.Equal(t, int64(2), snap.EventsIngested)
	assert.Equal(t, int64(1), snap.ClassifyPasses)
	assert.Equal(t, int64(3), snap.LogLinesSkipped)
	assert.Equal(t, int64(1), snap.WebhooksRejected)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollectorNilSafe(t *testing.T) {
	t.Parallel()

	var c *Collector
	c.EventIngested()
	c.ClassifyPass()
	c.LogLinesSkipped(5)
	c.WebhookRejected()

	snap := c.Collect()
	assert.Zero(t, snap.EventsIngested)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollectorHandlerExposition(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.EventIngested()
	c.EventIngested()
	c.WebhookRejected()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "ordertrack_events_ingested_total 2")
	assert.Contains(t, body, "ordertrack_webhooks_rejected_total 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestCollectorConcurrent(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.EventIngested()
			c.ClassifyPass()
		}()
	}
	wg.Wait()

	snap := c.Collect()
	assert.Equal(t, int64(50), snap.EventsIngested)
	assert.Equal(t, int64(50), snap.ClassifyPasses)
}
