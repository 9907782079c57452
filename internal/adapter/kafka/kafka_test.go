package kafka

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/galaxia/internal/config"
	"github.com/couchcryptid/galaxia/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	state := domain.ISSState{
		Position:  domain.ISSPosition{Lat: 51.5, Lon: -0.12},
		Telemetry: domain.ISSTelemetry{Altitude: 418.2, Velocity: 27580.1, Visibility: "eclipsed"},
		Path:      [][2]float64{{51, -1}},
		Country:   "United Kingdom",
		UpdatedAt: now,
	}

	msg, err := serializeToMessage(state)
	require.NoError(t, err)

	assert.Equal(t, []byte("iss"), msg.Key)
	assert.Contains(t, string(msg.Value), `"country":"United Kingdom"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "source", msg.Headers[0].Key)
	assert.Equal(t, []byte("galaxia-tracker"), msg.Headers[0].Value)
	assert.Equal(t, "updated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.ISSState
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.InDelta(t, 418.2, decoded.Telemetry.Altitude, 1e-9)
	assert.Equal(t, state.Path, decoded.Path)
}

func TestNewWriter(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTelemetryTopic: "iss-telemetry"}, nil)
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "iss-telemetry", w.writer.Topic)
	assert.Equal(t, "localhost:9092", w.writer.Addr.String())
}
