// Package impact calls the asteroid impact risk model.
package impact

import (
	"net/http"

	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// Predict describes POST /predict_impact for the given orbit. Parameters
// that fail validation fail the cell without a request.
func Predict(params domain.OrbitalParameters) fetch.Descriptor[domain.ImpactPrediction] {
	return fetch.Descriptor[domain.ImpactPrediction]{
		Source: "impact prediction",
		Request: func() (upstream.Request, error) {
			if err := domain.Validate(params); err != nil {
				return upstream.Request{}, err
			}
			return upstream.Request{
				Method: http.MethodPost,
				Path:   "/predict_impact",
				Body:   params,
			}, nil
		},
		Normalize:      domain.ParsePrediction,
		FailureMessage: "Failed to get prediction.",
	}
}
