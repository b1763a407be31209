package metrics

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/roomba/pkg/oi"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("unplugged") }

func TestWriter_CountsPackets(t *testing.T) {
	before := testutil.ToFloat64(PacketsTotal.WithLabelValues("drive"))

	var buf bytes.Buffer
	w := Writer(&buf)
	_, err := w.Write(oi.Drive(200, oi.RadiusStraight).Bytes())
	require.NoError(t, err)
	_, err = w.Write(oi.Drive(0, 0).Bytes())
	require.NoError(t, err)

	assert.Equal(t, before+2, testutil.ToFloat64(PacketsTotal.WithLabelValues("drive")))
	assert.Equal(t, 10, buf.Len())
}

func TestWriter_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(WriteErrorsTotal)

	_, err := Writer(failingWriter{}).Write(oi.Start().Bytes())
	require.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(WriteErrorsTotal))
}

type nopCloser struct {
	bytes.Buffer
	closed bool
}

func (n *nopCloser) Close() error { n.closed = true; return nil }

func TestWriter_PreservesCloser(t *testing.T) {
	nc := &nopCloser{}
	w := Writer(nc)
	c, ok := w.(io.Closer)
	require.True(t, ok)
	require.NoError(t, c.Close())
	assert.True(t, nc.closed)
}

func TestServer_Routes(t *testing.T) {
	ready := false
	srv := NewServer(":0", func() bool { return ready }, nil)
	SequencesTotal.WithLabelValues(ResultOK).Inc()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready = true
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "roomba_sequences_total"))
}
