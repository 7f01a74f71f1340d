package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmdash/internal/query"
)

var _ query.Observer = (*Recorder)(nil)

func TestObserveLoad(t *testing.T) {
	r := New()
	r.ObserveLoad("customers", 120*time.Millisecond, nil)
	r.ObserveLoad("customers", 80*time.Millisecond, nil)
	r.ObserveLoad("customers", time.Second, errors.New("timeout"))
	r.ObserveLoad("", time.Second, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.loads.WithLabelValues("customers", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.loads.WithLabelValues("customers", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestRefreshTriggered(t *testing.T) {
	r := New()
	r.RefreshTriggered()
	r.RefreshTriggered()
	assert.Equal(t, 2.0, testutil.ToFloat64(r.triggers))
}

func TestHandler(t *testing.T) {
	r := New()
	r.ObserveLoad("leads", 10*time.Millisecond, nil)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `crmdash_loads_total{resource="leads",result="success"} 1`)
	assert.Contains(t, string(body), "crmdash_load_duration_seconds_bucket")
}
