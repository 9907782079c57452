// Package geocode resolves the country under a coordinate with the
// geocode.maps.co reverse API.
package geocode

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// ErrNoPosition fails a country lookup issued before any position is known.
var ErrNoPosition = errors.New("no position to geocode")

// ReverseRequest builds /reverse for the coordinate rounded to two decimals,
// so nearby points share a cache entry.
func ReverseRequest(apiKey string, lat, lon float64) upstream.Request {
	q := url.Values{
		"lat": {formatCoord(lat)},
		"lon": {formatCoord(lon)},
	}
	if apiKey != "" {
		q.Set("api_key", apiKey)
	}
	return upstream.Request{Path: "/reverse", Query: q}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(domain.RoundCoord(v), 'f', 2, 64)
}

// Reverse describes a lookup for a fixed coordinate.
func Reverse(apiKey string, lat, lon float64) fetch.Descriptor[domain.GeocodingResult] {
	return fetch.Descriptor[domain.GeocodingResult]{
		Source: "reverse geocode",
		Request: func() (upstream.Request, error) {
			return ReverseRequest(apiKey, lat, lon), nil
		},
		Normalize: domain.NormalizeReverseGeocode,
	}
}

// Country describes the country under the latest known position. The
// position is read when each request is built. Open water resolves to
// domain.UnknownCountry.
func Country(apiKey string, position func() (domain.ISSPosition, bool)) fetch.Descriptor[string] {
	return fetch.Descriptor[string]{
		Source: "iss country",
		Request: func() (upstream.Request, error) {
			pos, ok := position()
			if !ok {
				return upstream.Request{}, ErrNoPosition
			}
			return ReverseRequest(apiKey, pos.Lat, pos.Lon), nil
		},
		Normalize: func(body []byte) (string, error) {
			res, err := domain.NormalizeReverseGeocode(body)
			if err != nil {
				return "", err
			}
			if res.Country == "" {
				return domain.UnknownCountry, nil
			}
			return res.Country, nil
		},
	}
}
