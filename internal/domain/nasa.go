package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// APOD is NASA's Astronomy Picture of the Day.
type APOD struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl"`
	Explanation string `json:"explanation"`
	MediaType   string `json:"media_type"`
	Copyright   string `json:"copyright,omitempty"`
}

// CloseApproach is the first recorded approach of a near-earth object.
type CloseApproach struct {
	Date         string  `json:"date"`
	VelocityKmh  float64 `json:"velocity_kmh"`
	MissKm       float64 `json:"miss_km"`
	OrbitingBody string  `json:"orbiting_body"`
}

// NearEarthObject is one asteroid from the NeoWs feed.
type NearEarthObject struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	DiameterMinKm     float64       `json:"diameter_min_km"`
	DiameterMaxKm     float64       `json:"diameter_max_km"`
	DiameterAvgKm     float64       `json:"diameter_avg_km"`
	AbsoluteMagnitude float64       `json:"absolute_magnitude"`
	Hazardous         bool          `json:"hazardous"`
	CloseApproach     CloseApproach `json:"close_approach"`
	ApproachDay       string        `json:"approach_day"`
	JPLURL            string        `json:"jpl_url,omitempty"`
}

// NEOFeed is the flattened NeoWs feed for a date range.
type NEOFeed struct {
	Range   DateRange         `json:"range"`
	Count   int               `json:"count"`
	Objects []NearEarthObject `json:"objects"`
}

// Impact is one predicted CME arrival.
type Impact struct {
	Location     string `json:"location"`
	ArrivalTime  string `json:"arrival_time"`
	GlancingBlow bool   `json:"glancing_blow"`
}

// CMEEvent is a coronal mass ejection from DONKI.
type CMEEvent struct {
	ActivityID string   `json:"activity_id"`
	Catalog    string   `json:"catalog"`
	StartTime  string   `json:"start_time"`
	Speed      float64  `json:"speed"`
	Velocity   string   `json:"velocity"`
	Note       string   `json:"note"`
	Link       string   `json:"link,omitempty"`
	Impacts    []Impact `json:"impacts"`
}

type rawAPOD struct {
	Date        *string `json:"date"`
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	HDURL       *string `json:"hdurl"`
	Explanation *string `json:"explanation"`
	MediaType   *string `json:"media_type"`
	Copyright   *string `json:"copyright"`
}

type rawNEO struct {
	ID                 *string  `json:"id"`
	Name               *string  `json:"name"`
	NASAJPLURL         *string  `json:"nasa_jpl_url"`
	AbsoluteMagnitudeH *float64 `json:"absolute_magnitude_h"`
	EstimatedDiameter  *struct {
		Kilometers *struct {
			Min *float64 `json:"estimated_diameter_min"`
			Max *float64 `json:"estimated_diameter_max"`
		} `json:"kilometers"`
	} `json:"estimated_diameter"`
	Hazardous        bool `json:"is_potentially_hazardous_asteroid"`
	CloseApproachSet []struct {
		Date             *string `json:"close_approach_date"`
		RelativeVelocity *struct {
			KmPerHour *string `json:"kilometers_per_hour"`
		} `json:"relative_velocity"`
		MissDistance *struct {
			Kilometers *string `json:"kilometers"`
		} `json:"miss_distance"`
		OrbitingBody *string `json:"orbiting_body"`
	} `json:"close_approach_data"`
}

type rawNEOFeed struct {
	ElementCount    int                 `json:"element_count"`
	NearEarthObject map[string][]rawNEO `json:"near_earth_objects"`
}

type rawCME struct {
	ActivityID  *string `json:"activityID"`
	Catalog     *string `json:"catalog"`
	StartTime   *string `json:"startTime"`
	Note        *string `json:"note"`
	Link        *string `json:"link"`
	CMEAnalyses []struct {
		Speed     *float64 `json:"speed"`
		EnlilList []struct {
			ImpactList []struct {
				Location       *string `json:"location"`
				ArrivalTime    *string `json:"arrivalTime"`
				IsGlancingBlow bool    `json:"isGlancingBlow"`
			} `json:"impactList"`
		} `json:"enlilList"`
	} `json:"cmeAnalyses"`
}

// NormalizeAPOD converts a /planetary/apod body.
func NormalizeAPOD(body []byte) (APOD, error) {
	var raw rawAPOD
	if err := decode(body, &raw, "apod"); err != nil {
		return APOD{}, err
	}
	return APOD{
		Date:        str(raw.Date, notAvailable),
		Title:       str(raw.Title, notAvailable),
		URL:         str(raw.URL, ""),
		HDURL:       str(raw.HDURL, ""),
		Explanation: str(raw.Explanation, notAvailable),
		MediaType:   str(raw.MediaType, "image"),
		Copyright:   strings.TrimSpace(str(raw.Copyright, "")),
	}, nil
}

// NormalizeNEOFeed converts a /neo/rest/v1/feed body and flattens it.
func NormalizeNEOFeed(body []byte, r DateRange) (NEOFeed, error) {
	var raw rawNEOFeed
	if err := decode(body, &raw, "neo feed"); err != nil {
		return NEOFeed{}, err
	}
	days := make(map[string][]NearEarthObject, len(raw.NearEarthObject))
	for day, objs := range raw.NearEarthObject {
		list := make([]NearEarthObject, 0, len(objs))
		for _, o := range objs {
			list = append(list, neoFromRaw(o, day))
		}
		days[day] = list
	}
	objects := FlattenNEOFeed(days)
	return NEOFeed{Range: r, Count: len(objects), Objects: objects}, nil
}

// FlattenNEOFeed concatenates the per-day lists in ascending day order. The
// result length is always the sum of the per-day lengths.
func FlattenNEOFeed(days map[string][]NearEarthObject) []NearEarthObject {
	keys := make([]string, 0, len(days))
	total := 0
	for k, v := range days {
		keys = append(keys, k)
		total += len(v)
	}
	sort.Strings(keys)

	out := make([]NearEarthObject, 0, total)
	for _, k := range keys {
		out = append(out, days[k]...)
	}
	return out
}

func neoFromRaw(o rawNEO, day string) NearEarthObject {
	n := NearEarthObject{
		ID:                str(o.ID, ""),
		Name:              str(o.Name, notAvailable),
		AbsoluteMagnitude: floatOrZero(o.AbsoluteMagnitudeH),
		Hazardous:         o.Hazardous,
		ApproachDay:       day,
		JPLURL:            str(o.NASAJPLURL, ""),
		CloseApproach:     CloseApproach{Date: notAvailable, OrbitingBody: notAvailable},
	}
	if o.EstimatedDiameter != nil && o.EstimatedDiameter.Kilometers != nil {
		n.DiameterMinKm = floatOrZero(o.EstimatedDiameter.Kilometers.Min)
		n.DiameterMaxKm = floatOrZero(o.EstimatedDiameter.Kilometers.Max)
		n.DiameterAvgKm = round2((n.DiameterMinKm + n.DiameterMaxKm) / 2)
	}
	if len(o.CloseApproachSet) > 0 {
		ca := o.CloseApproachSet[0]
		n.CloseApproach.Date = str(ca.Date, notAvailable)
		n.CloseApproach.OrbitingBody = str(ca.OrbitingBody, notAvailable)
		if ca.RelativeVelocity != nil {
			n.CloseApproach.VelocityKmh = round2(parseFloatOrZero(str(ca.RelativeVelocity.KmPerHour, "")))
		}
		if ca.MissDistance != nil {
			n.CloseApproach.MissKm = parseFloatOrZero(str(ca.MissDistance.Kilometers, ""))
		}
	}
	return n
}

// NormalizeCMEEvents converts a /DONKI/CME body. DONKI answers an empty
// body when the range holds no events.
func NormalizeCMEEvents(body []byte) ([]CMEEvent, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return []CMEEvent{}, nil
	}
	var raws []rawCME
	if err := decode(body, &raws, "cme"); err != nil {
		return nil, err
	}
	out := make([]CMEEvent, 0, len(raws))
	for _, r := range raws {
		ev := CMEEvent{
			ActivityID: str(r.ActivityID, ""),
			Catalog:    str(r.Catalog, notAvailable),
			StartTime:  str(r.StartTime, notAvailable),
			Note:       str(r.Note, ""),
			Link:       str(r.Link, ""),
			Velocity:   notAvailable,
			Impacts:    []Impact{},
		}
		if len(r.CMEAnalyses) > 0 {
			analysis := r.CMEAnalyses[0]
			if analysis.Speed != nil && *analysis.Speed > 0 {
				ev.Speed = *analysis.Speed
				ev.Velocity = fmt.Sprintf("%g km/s", ev.Speed)
			}
			if len(analysis.EnlilList) > 0 {
				for _, imp := range analysis.EnlilList[0].ImpactList {
					ev.Impacts = append(ev.Impacts, Impact{
						Location:     str(imp.Location, notAvailable),
						ArrivalTime:  str(imp.ArrivalTime, notAvailable),
						GlancingBlow: imp.IsGlancingBlow,
					})
				}
			}
		}
		out = append(out, ev)
	}
	return out, nil
}

// parseFloatOrZero parses a decimal string, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
