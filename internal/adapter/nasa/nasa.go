// Package nasa builds fetch descriptors for api.nasa.gov: APOD, the NeoWs
// feed and DONKI coronal mass ejections.
package nasa

import (
	"net/url"

	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// APOD describes /planetary/apod.
func APOD(apiKey string) fetch.Descriptor[domain.APOD] {
	return fetch.Descriptor[domain.APOD]{
		Source: "apod",
		Request: func() (upstream.Request, error) {
			return upstream.Request{
				Path:  "/planetary/apod",
				Query: url.Values{"api_key": {apiKey}},
			}, nil
		},
		Normalize: domain.NormalizeAPOD,
	}
}

// NEOFeed describes /neo/rest/v1/feed. An invalid range fails the cell
// before any request is sent.
func NEOFeed(apiKey string, q domain.RangeQuery) fetch.Descriptor[domain.NEOFeed] {
	r, rangeErr := domain.NEORange(q)
	return fetch.Descriptor[domain.NEOFeed]{
		Source: "near earth objects",
		Request: func() (upstream.Request, error) {
			if rangeErr != nil {
				return upstream.Request{}, rangeErr
			}
			return upstream.Request{
				Path: "/neo/rest/v1/feed",
				Query: url.Values{
					"start_date": {r.StartDate()},
					"end_date":   {r.EndDate()},
					"api_key":    {apiKey},
				},
			}, nil
		},
		Normalize: func(body []byte) (domain.NEOFeed, error) {
			return domain.NormalizeNEOFeed(body, r)
		},
	}
}

// CME describes /DONKI/CME.
func CME(apiKey string, q domain.RangeQuery) fetch.Descriptor[[]domain.CMEEvent] {
	r, rangeErr := domain.CMERange(q)
	return fetch.Descriptor[[]domain.CMEEvent]{
		Source: "coronal mass ejections",
		Request: func() (upstream.Request, error) {
			if rangeErr != nil {
				return upstream.Request{}, rangeErr
			}
			return upstream.Request{
				Path: "/DONKI/CME",
				Query: url.Values{
					"startDate": {r.StartDate()},
					"endDate":   {r.EndDate()},
					"api_key":   {apiKey},
				},
			}, nil
		},
		Normalize: domain.NormalizeCMEEvents,
	}
}
