// Package domain models the space data served by galaxia and normalizes the
// raw collaborator payloads into view models.
//
// # Normalization
//
// Every Normalize function is pure: the same body always yields the same
// value, and nothing is cached between calls. Bodies that are not valid JSON
// (or not the expected top-level shape) fail with [ErrMalformed]. Missing or
// null nested fields never fail; they fall back to:
//
//	text fields     "N/A" (or a field-specific phrase such as "Unknown Payload")
//	numeric fields  0
//	lists           empty, never nil, so JSON renders []
//
// # Collaborator conventions
//
// SpaceX v4 launches reference crew either as bare ids ("5ebf1a6e23a9a60006e03a7a")
// or as objects ({"crew": "5ebf...", "role": "Commander"}); both decode to
// [CrewRef]. A launch with "upcoming": true is reported as "Upcoming Launch"
// regardless of its success flag.
//
// NASA NeoWs groups objects by approach day ("near_earth_objects" keyed by
// YYYY-MM-DD). [FlattenNEOFeed] concatenates the days in ascending date order
// without deduplication. NeoWs numeric measures such as miss distance arrive as
// decimal strings.
//
// Open Notify reports ISS coordinates as decimal strings; wheretheiss.at
// reports them as numbers. Both become float64 degrees.
//
// The impact model answers either a bare number (0 or 1), an object with
// "prediction" and optional "probability", or an object with "impact_risk" and
// "prediction_probability". [ParsePrediction] discriminates the three shapes.
package domain
