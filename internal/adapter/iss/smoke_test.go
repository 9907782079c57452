//go:build smoke

package iss

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/observability"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// These tests hit Open Notify and wheretheiss.at.
// Run with: go test -tags=smoke ./internal/adapter/iss/ -v -count=1

func liveClient(name, baseURL string) *upstream.Client {
	return upstream.NewClient(upstream.Options{Name: name, BaseURL: baseURL, Timeout: 10 * time.Second},
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_Position(t *testing.T) {
	st := fetch.NewCell(liveClient("open-notify", "http://api.open-notify.org"), Position()).Fetch(context.Background())
	require.Equal(t, fetch.StatusReady, st.Status, st.Err)
	assert.InDelta(t, 0, st.Data.Lat, 90)
	assert.InDelta(t, 0, st.Data.Lon, 180)
}

func TestSmoke_TelemetryAndPath(t *testing.T) {
	c := liveClient("wheretheiss", "https://api.wheretheiss.at/v1")

	tel := fetch.NewCell(c, Telemetry()).Fetch(context.Background())
	require.Equal(t, fetch.StatusReady, tel.Status, tel.Err)
	assert.Greater(t, tel.Data.Altitude, 300.0)

	path := fetch.NewCell(c, Path()).Fetch(context.Background())
	require.Equal(t, fetch.StatusReady, path.Status, path.Err)
	assert.NotEmpty(t, path.Data)
}
