package domain

import (
	"bytes"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// Default confidences when the model omits a probability.
const (
	DefaultRiskProbability = 0.95
	DefaultSafeProbability = 0.05
)

// Shapes of the impact model's answer.
const (
	ShapeNumber     = "number"
	ShapePrediction = "prediction"
	ShapeImpactRisk = "impact_risk"
)

// OrbitalParameters is the impact model input.
type OrbitalParameters struct {
	OrbitAxis                    float64 `json:"orbit_axis" validate:"gt=0"`
	Eccentricity                 float64 `json:"eccentricity" validate:"gte=0,lte=1"`
	Inclination                  float64 `json:"inclination" validate:"gte=0,lte=180"`
	PerihelionDistance           float64 `json:"perihelion_distance" validate:"gte=0"`
	AphelionDistance             float64 `json:"aphelion_distance" validate:"gtefield=PerihelionDistance"`
	MinOrbitIntersectionDistance float64 `json:"min_orbit_intersection_distance" validate:"gte=0"`
	MeanAnomaly                  float64 `json:"mean_anomaly" validate:"gte=0,lte=360"`
	PerihelionArgument           float64 `json:"perihelion_argument" validate:"gte=0,lte=360"`
	NodeLongitude                float64 `json:"node_longitude" validate:"gte=0,lte=360"`
	OrbitalPeriod                float64 `json:"orbital_period" validate:"gt=0"`
}

// DefaultOrbitalParameters is the sample asteroid offered by the predictor form.
func DefaultOrbitalParameters() OrbitalParameters {
	return OrbitalParameters{
		OrbitAxis:                    1.5,
		Eccentricity:                 0.3,
		Inclination:                  5.0,
		PerihelionDistance:           0.8,
		AphelionDistance:             2.2,
		MinOrbitIntersectionDistance: 0.05,
		MeanAnomaly:                  120.5,
		PerihelionArgument:           75.3,
		NodeLongitude:                110.2,
		OrbitalPeriod:                1.7,
	}
}

// ImpactPrediction is the normalized model answer.
type ImpactPrediction struct {
	Risk        int     `json:"impact_risk"`
	Probability float64 `json:"prediction_probability"`
	Shape       string  `json:"shape"`
	Verdict     string  `json:"verdict"`
	Percent     string  `json:"percent"`
}

// ParsePrediction discriminates the three answer shapes of the impact model.
func ParsePrediction(body []byte) (ImpactPrediction, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return ImpactPrediction{}, fmt.Errorf("decode prediction: %w: empty body", ErrMalformed)
	}

	switch body[0] {
	case '{':
		var obj struct {
			Prediction            *float64 `json:"prediction"`
			Probability           *float64 `json:"probability"`
			ImpactRisk            *float64 `json:"impact_risk"`
			PredictionProbability *float64 `json:"prediction_probability"`
		}
		if err := decode(body, &obj, "prediction"); err != nil {
			return ImpactPrediction{}, err
		}
		if obj.Prediction != nil {
			risk := riskOf(*obj.Prediction)
			prob := defaultProbability(risk)
			if obj.Probability != nil && *obj.Probability != 0 {
				prob = *obj.Probability
			}
			return newPrediction(risk, prob, ShapePrediction), nil
		}
		if obj.ImpactRisk == nil {
			return ImpactPrediction{}, fmt.Errorf("decode prediction: %w: no prediction or impact_risk field", ErrMalformed)
		}
		risk := riskOf(*obj.ImpactRisk)
		prob := defaultProbability(risk)
		if obj.PredictionProbability != nil {
			prob = *obj.PredictionProbability
		}
		return newPrediction(risk, prob, ShapeImpactRisk), nil

	default:
		var n float64
		if err := json.Unmarshal(body, &n); err != nil {
			return ImpactPrediction{}, fmt.Errorf("decode prediction: %w: %w", ErrMalformed, err)
		}
		risk := riskOf(n)
		return newPrediction(risk, defaultProbability(risk), ShapeNumber), nil
	}
}

func riskOf(v float64) int {
	if math.Round(v) >= 1 {
		return 1
	}
	return 0
}

func defaultProbability(risk int) float64 {
	if risk == 1 {
		return DefaultRiskProbability
	}
	return DefaultSafeProbability
}

func newPrediction(risk int, prob float64, shape string) ImpactPrediction {
	p := ImpactPrediction{
		Risk:        risk,
		Probability: prob,
		Shape:       shape,
		Verdict:     "No Immediate Threat",
		Percent:     fmt.Sprintf("%.2f%%", prob*100),
	}
	if risk == 1 {
		p.Verdict = "Potential Impact Detected!"
	}
	return p
}
