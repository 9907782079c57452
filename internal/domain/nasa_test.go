package domain

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAPOD(t *testing.T) {
	body := []byte(`{"date":"2024-01-05","title":"The Horsehead Nebula","url":"https://apod.nasa.gov/apod/image/horse.jpg","hdurl":"https://apod.nasa.gov/apod/image/horse_big.jpg","explanation":"A dark nebula.","media_type":"image","copyright":"\nJohn Doe\n"}`)

	got, err := NormalizeAPOD(body)
	require.NoError(t, err)
	assert.Equal(t, APOD{
		Date:        "2024-01-05",
		Title:       "The Horsehead Nebula",
		URL:         "https://apod.nasa.gov/apod/image/horse.jpg",
		HDURL:       "https://apod.nasa.gov/apod/image/horse_big.jpg",
		Explanation: "A dark nebula.",
		MediaType:   "image",
		Copyright:   "John Doe",
	}, got)

	empty, err := NormalizeAPOD([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, notAvailable, empty.Title)
	assert.Equal(t, notAvailable, empty.Explanation)
}

// neoFeedBody builds a NeoWs feed with the given number of objects per day.
func neoFeedBody(perDay map[string]int) []byte {
	var days []string
	for day, n := range perDay {
		objs := make([]string, n)
		for i := range n {
			objs[i] = fmt.Sprintf(`{"id":"%s-%d","name":"(%s %d)","absolute_magnitude_h":21.3,
				"estimated_diameter":{"kilometers":{"estimated_diameter_min":0.1,"estimated_diameter_max":0.3}},
				"is_potentially_hazardous_asteroid":%t,
				"close_approach_data":[{"close_approach_date":"%s","relative_velocity":{"kilometers_per_hour":"45123.456"},"miss_distance":{"kilometers":"7481234.5"},"orbiting_body":"Earth"}]}`,
				day, i, day, i, i%2 == 0, day)
		}
		days = append(days, fmt.Sprintf(`"%s":[%s]`, day, strings.Join(objs, ",")))
	}
	return []byte(`{"element_count":0,"near_earth_objects":{` + strings.Join(days, ",") + `}}`)
}

func TestNormalizeNEOFeed_SevenDayRangeCountsEveryObject(t *testing.T) {
	perDay := map[string]int{
		"2024-01-01": 3,
		"2024-01-02": 0,
		"2024-01-03": 5,
		"2024-01-04": 1,
		"2024-01-05": 2,
		"2024-01-06": 4,
		"2024-01-07": 6,
	}
	want := 0
	for _, n := range perDay {
		want += n
	}
	r, err := NEORange(RangeQuery{Start: "2024-01-01", End: "2024-01-07"})
	require.NoError(t, err)

	feed, err := NormalizeNEOFeed(neoFeedBody(perDay), r)
	require.NoError(t, err)

	assert.Equal(t, want, feed.Count)
	assert.Len(t, feed.Objects, want)

	seen := make(map[string]bool, len(feed.Objects))
	for _, o := range feed.Objects {
		assert.False(t, seen[o.ID], "duplicate object %s", o.ID)
		seen[o.ID] = true
	}

	// Days appear in ascending order.
	for i := 1; i < len(feed.Objects); i++ {
		assert.LessOrEqual(t, feed.Objects[i-1].ApproachDay, feed.Objects[i].ApproachDay)
	}
}

func TestNormalizeNEOFeed_ObjectFields(t *testing.T) {
	feed, err := NormalizeNEOFeed(neoFeedBody(map[string]int{"2024-01-01": 1}), DateRange{})
	require.NoError(t, err)
	require.Len(t, feed.Objects, 1)

	want := NearEarthObject{
		ID:                "2024-01-01-0",
		Name:              "(2024-01-01 0)",
		DiameterMinKm:     0.1,
		DiameterMaxKm:     0.3,
		DiameterAvgKm:     0.2,
		AbsoluteMagnitude: 21.3,
		Hazardous:         true,
		CloseApproach: CloseApproach{
			Date:         "2024-01-01",
			VelocityKmh:  45123.46,
			MissKm:       7481234.5,
			OrbitingBody: "Earth",
		},
		ApproachDay: "2024-01-01",
	}
	if diff := cmp.Diff(want, feed.Objects[0]); diff != "" {
		t.Errorf("NEO mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeNEOFeed_MissingApproachData(t *testing.T) {
	feed, err := NormalizeNEOFeed([]byte(`{"near_earth_objects":{"2024-01-01":[{"id":"x"}]}}`), DateRange{})
	require.NoError(t, err)
	require.Len(t, feed.Objects, 1)
	assert.Equal(t, notAvailable, feed.Objects[0].CloseApproach.OrbitingBody)
	assert.Equal(t, notAvailable, feed.Objects[0].Name)
	assert.Zero(t, feed.Objects[0].DiameterAvgKm)
}

func TestFlattenNEOFeed_NoDedupe(t *testing.T) {
	same := NearEarthObject{ID: "dup"}
	got := FlattenNEOFeed(map[string][]NearEarthObject{
		"2024-01-02": {same},
		"2024-01-01": {same, {ID: "a"}},
	})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"dup", "a", "dup"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestNormalizeCMEEvents(t *testing.T) {
	body := []byte(`[
		{"activityID":"2024-01-03T14:48:00-CME-001","catalog":"M2M_CATALOG","startTime":"2024-01-03T14:48Z","note":"Faint CME","link":"https://kauai.ccmc.gsfc.nasa.gov/DONKI/view/CME/1",
		 "cmeAnalyses":[{"speed":512.0,"enlilList":[{"impactList":[{"location":"STEREO A","arrivalTime":"2024-01-06T01:00Z","isGlancingBlow":true}]}]}]},
		{"activityID":"2024-01-04T01:00:00-CME-001","catalog":"M2M_CATALOG","startTime":"2024-01-04T01:00Z","cmeAnalyses":null}
	]`)

	got, err := NormalizeCMEEvents(body)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.InDelta(t, 512.0, got[0].Speed, 0)
	assert.Equal(t, "512 km/s", got[0].Velocity)
	assert.Equal(t, []Impact{{Location: "STEREO A", ArrivalTime: "2024-01-06T01:00Z", GlancingBlow: true}}, got[0].Impacts)

	assert.Equal(t, notAvailable, got[1].Velocity)
	assert.Equal(t, []Impact{}, got[1].Impacts)
}

func TestNormalizeCMEEvents_EmptyBody(t *testing.T) {
	got, err := NormalizeCMEEvents([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNormalizeCMEEvents_Malformed(t *testing.T) {
	_, err := NormalizeCMEEvents([]byte(`{"error":"bad"}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDateRange_JSON(t *testing.T) {
	r := DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
	}
	data, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"start_date":"2024-01-01","end_date":"2024-01-07"}`, string(data))
	assert.Equal(t, "2024-01-01..2024-01-07", r.String())
	assert.Equal(t, 6, r.Days())
}
