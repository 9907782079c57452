package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })
}

func TestNEORange(t *testing.T) {
	freezeClock(t, time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC))

	tests := []struct {
		name      string
		query     RangeQuery
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{name: "default last seven days", wantStart: "2024-03-03", wantEnd: "2024-03-10"},
		{name: "exact seven days", query: RangeQuery{Start: "2024-01-01", End: "2024-01-08"}, wantStart: "2024-01-01", wantEnd: "2024-01-08"},
		{name: "single day", query: RangeQuery{Start: "2024-01-01", End: "2024-01-01"}, wantStart: "2024-01-01", wantEnd: "2024-01-01"},
		{name: "eight days", query: RangeQuery{Start: "2024-01-01", End: "2024-01-09"}, wantErr: true},
		{name: "end before start", query: RangeQuery{Start: "2024-01-05", End: "2024-01-01"}, wantErr: true},
		{name: "only start", query: RangeQuery{Start: "2024-01-05"}, wantErr: true},
		{name: "bad format", query: RangeQuery{Start: "01/05/2024", End: "2024-01-06"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NEORange(tt.query)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, r.StartDate())
			assert.Equal(t, tt.wantEnd, r.EndDate())
		})
	}
}

func TestCMERange(t *testing.T) {
	freezeClock(t, time.Date(2024, 3, 31, 1, 0, 0, 0, time.UTC))

	r, err := CMERange(RangeQuery{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", r.StartDate())
	assert.Equal(t, "2024-03-31", r.EndDate())

	r, err = CMERange(RangeQuery{Start: "2023-01-01", End: "2023-12-31"})
	require.NoError(t, err, "CME ranges have no maximum span")
	assert.Equal(t, 364, r.Days())

	_, err = CMERange(RangeQuery{End: "2023-12-31"})
	assert.ErrorIs(t, err, ErrInvalid)
}
