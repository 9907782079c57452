package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ISSNoradID is the NORAD catalogue number of the International Space Station.
const ISSNoradID = 25544

// Path sampling: 13 points spaced 15 minutes apart, starting 90 minutes ago.
const (
	PathPoints   = 13
	PathLookback = 5400
	PathStep     = 900
)

// UnknownCountry is shown when the ISS is over water or geocoding fails.
const UnknownCountry = "Unknown"

// ISSPosition is the sub-satellite point reported by Open Notify.
type ISSPosition struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

// ISSTelemetry is the orbital state reported by wheretheiss.at.
type ISSTelemetry struct {
	Altitude   float64 `json:"altitude_km"`
	Velocity   float64 `json:"velocity_kmh"`
	Visibility string  `json:"visibility"`
}

// ISSState is the merged tracker snapshot. A new value is built for every
// update; published snapshots are never mutated.
type ISSState struct {
	Position  ISSPosition  `json:"position"`
	Telemetry ISSTelemetry `json:"telemetry"`
	Path      [][2]float64 `json:"path"`
	Country   string       `json:"country"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Astronaut is a person currently aboard a spacecraft.
type Astronaut struct {
	Name    string `json:"name"`
	Craft   string `json:"craft"`
	Details string `json:"details,omitempty"`
}

// GeocodingResult is the outcome of a reverse geocode lookup.
type GeocodingResult struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

type rawISSNow struct {
	Position *struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"iss_position"`
	Timestamp int64 `json:"timestamp"`
}

type rawSatellite struct {
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Altitude   *float64 `json:"altitude"`
	Velocity   *float64 `json:"velocity"`
	Visibility *string  `json:"visibility"`
}

type rawAstros struct {
	People []struct {
		Name  *string `json:"name"`
		Craft *string `json:"craft"`
	} `json:"people"`
}

type rawReverse struct {
	DisplayName *string `json:"display_name"`
	Lat         *string `json:"lat"`
	Lon         *string `json:"lon"`
	Address     *struct {
		Country     *string `json:"country"`
		CountryCode *string `json:"country_code"`
	} `json:"address"`
}

// NormalizeISSPosition converts an Open Notify iss-now body. Coordinates that
// are missing or not numeric make the body malformed.
func NormalizeISSPosition(body []byte) (ISSPosition, error) {
	var raw rawISSNow
	if err := decode(body, &raw, "iss position"); err != nil {
		return ISSPosition{}, err
	}
	if raw.Position == nil {
		return ISSPosition{}, fmt.Errorf("decode iss position: %w: missing iss_position", ErrMalformed)
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(raw.Position.Latitude), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(raw.Position.Longitude), 64)
	if errLat != nil || errLon != nil {
		return ISSPosition{}, fmt.Errorf("decode iss position: %w: non-numeric coordinates", ErrMalformed)
	}
	pos := ISSPosition{Lat: lat, Lon: lon}
	if raw.Timestamp > 0 {
		pos.Timestamp = time.Unix(raw.Timestamp, 0).UTC()
	}
	return pos, nil
}

// NormalizeISSTelemetry converts a wheretheiss.at satellites/25544 body.
// Altitude and velocity are rounded to two decimals.
func NormalizeISSTelemetry(body []byte) (ISSTelemetry, error) {
	var raw rawSatellite
	if err := decode(body, &raw, "iss telemetry"); err != nil {
		return ISSTelemetry{}, err
	}
	return ISSTelemetry{
		Altitude:   round2(floatOrZero(raw.Altitude)),
		Velocity:   round2(floatOrZero(raw.Velocity)),
		Visibility: str(raw.Visibility, notAvailable),
	}, nil
}

// NormalizeISSPath converts a wheretheiss.at positions body into
// [lat, lon] pairs in upstream order. Points without coordinates are skipped.
func NormalizeISSPath(body []byte) ([][2]float64, error) {
	var raws []rawSatellite
	if err := decode(body, &raws, "iss path"); err != nil {
		return nil, err
	}
	out := make([][2]float64, 0, len(raws))
	for _, r := range raws {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		out = append(out, [2]float64{*r.Latitude, *r.Longitude})
	}
	return out, nil
}

// PathTimestamps returns the Unix seconds sampled for the ground track.
func PathTimestamps(now time.Time) []int64 {
	base := now.Unix() - PathLookback
	out := make([]int64, PathPoints)
	for i := range out {
		out[i] = base + int64(i*PathStep)
	}
	return out
}

// JoinTimestamps renders timestamps as the comma-separated query value.
func JoinTimestamps(ts []int64) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = strconv.FormatInt(t, 10)
	}
	return strings.Join(parts, ",")
}

// NormalizeAstronauts converts an Open Notify astros body, keeping only
// people aboard the given craft.
func NormalizeAstronauts(body []byte, craft string) ([]Astronaut, error) {
	var raw rawAstros
	if err := decode(body, &raw, "astronauts"); err != nil {
		return nil, err
	}
	out := make([]Astronaut, 0, len(raw.People))
	for _, p := range raw.People {
		c := str(p.Craft, "")
		if craft != "" && c != craft {
			continue
		}
		out = append(out, Astronaut{Name: str(p.Name, notAvailable), Craft: c})
	}
	return out, nil
}

// NormalizeReverseGeocode converts a geocode.maps.co reverse body. A body
// without an address (open ocean) yields an empty country.
func NormalizeReverseGeocode(body []byte) (GeocodingResult, error) {
	var raw rawReverse
	if err := decode(body, &raw, "reverse geocode"); err != nil {
		return GeocodingResult{}, err
	}
	res := GeocodingResult{
		DisplayName: str(raw.DisplayName, ""),
		Lat:         parseFloatOrZero(str(raw.Lat, "")),
		Lon:         parseFloatOrZero(str(raw.Lon, "")),
	}
	if raw.Address != nil {
		res.Country = str(raw.Address.Country, "")
		res.CountryCode = strings.ToUpper(str(raw.Address.CountryCode, ""))
	}
	return res, nil
}

// RoundCoord rounds a coordinate to two decimals, roughly one kilometre.
func RoundCoord(v float64) float64 {
	return math.Round(v*100) / 100
}
