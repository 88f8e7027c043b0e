package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nvr-ai/go-motion/batch"
	"github.com/nvr-ai/go-motion/stats"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ batch.Observer = (*Recorder)(nil)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RunStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ActiveRuns))

	r.ObserveFrame("run", stats.Sample{Delta: 0.1, Flow: 0.5}, 2*time.Millisecond)
	r.ObserveFrame("run", stats.Sample{Delta: 0.2, Flow: 0.25}, 3*time.Millisecond)
	r.ObserveRun("run", 3, time.Second, nil)
	r.ObserveRun("run", 0, time.Millisecond, errors.New("boom"))
	r.RunDone()
	r.ObserveArtwork(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.FramesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.ActiveRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ArtworksProcessed.WithLabelValues("ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.FrameDelta))
}

func TestRecordersUseSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRecorder(prometheus.NewRegistry())
		NewRecorder(prometheus.NewRegistry())
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.FramesTotal.Add(7)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "motion_frames_analyzed_total 7")

	res, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
