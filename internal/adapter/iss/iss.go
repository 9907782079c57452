// Package iss builds descriptors for the ISS collaborators: Open Notify for
// position and crew, wheretheiss.at for telemetry and the ground track.
package iss

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// Craft is the Open Notify craft name of the station.
const Craft = "ISS"

// DetailsUnavailable replaces an astronaut description that could not be generated.
const DetailsUnavailable = "Details unavailable."

// FactUnavailable replaces an explainer text that could not be generated.
const FactUnavailable = "Fact unavailable."

const (
	factPrompt    = "Give me an interesting fact about the International Space Station in one line."
	purposePrompt = "What is the main purpose of the International Space Station? Give a brief one-line answer."
)

// detailConcurrency bounds parallel astronaut description prompts.
const detailConcurrency = 4

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var satellitePath = "/satellites/" + strconv.Itoa(domain.ISSNoradID)

// Position describes Open Notify /iss-now.json.
func Position() fetch.Descriptor[domain.ISSPosition] {
	return fetch.Descriptor[domain.ISSPosition]{
		Source: "iss position",
		Request: func() (upstream.Request, error) {
			return upstream.Request{Path: "/iss-now.json"}, nil
		},
		Normalize: domain.NormalizeISSPosition,
	}
}

// Astronauts describes Open Notify /astros.json filtered to the station crew.
func Astronauts() fetch.Descriptor[[]domain.Astronaut] {
	return fetch.Descriptor[[]domain.Astronaut]{
		Source: "astronauts",
		Request: func() (upstream.Request, error) {
			return upstream.Request{Path: "/astros.json"}, nil
		},
		Normalize: func(body []byte) ([]domain.Astronaut, error) {
			return domain.NormalizeAstronauts(body, Craft)
		},
	}
}

// Telemetry describes wheretheiss.at /satellites/25544.
func Telemetry() fetch.Descriptor[domain.ISSTelemetry] {
	return fetch.Descriptor[domain.ISSTelemetry]{
		Source: "iss telemetry",
		Request: func() (upstream.Request, error) {
			return upstream.Request{Path: satellitePath}, nil
		},
		Normalize: domain.NormalizeISSTelemetry,
	}
}

// Path describes the ground track around now. Timestamps are taken when
// each request is built.
func Path() fetch.Descriptor[[][2]float64] {
	return fetch.Descriptor[[][2]float64]{
		Source: "iss path",
		Request: func() (upstream.Request, error) {
			ts := domain.PathTimestamps(domain.Now())
			return upstream.Request{
				Path: satellitePath + "/positions",
				Query: url.Values{
					"timestamps": {domain.JoinTimestamps(ts)},
					"units":      {"kilometers"},
				},
			}, nil
		},
		Normalize: domain.NormalizeISSPath,
	}
}

func detailPrompt(name string) string {
	return fmt.Sprintf("Provide engaging and factual details about the astronaut %s, currently onboard the ISS. "+
		"Include their nationality, current research on the ISS and a fun fact about their career. "+
		"Response should be concise and easy to understand in one line.", name)
}

// DescribeAstronauts returns a copy of people with Details generated for
// each person. A failed or empty generation yields DetailsUnavailable.
func DescribeAstronauts(ctx context.Context, gen Generator, people []domain.Astronaut) []domain.Astronaut {
	out := make([]domain.Astronaut, len(people))
	copy(out, people)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)
	for i := range out {
		g.Go(func() error {
			out[i].Details = generateOr(gctx, gen, detailPrompt(out[i].Name), DetailsUnavailable)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Facts is the pair of explainer texts shown beside the crew list.
type Facts struct {
	Fact    string `json:"fact"`
	Purpose string `json:"purpose"`
}

// LoadFacts generates both explainer texts concurrently.
func LoadFacts(ctx context.Context, gen Generator) Facts {
	var f Facts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f.Fact = generateOr(gctx, gen, factPrompt, FactUnavailable)
		return nil
	})
	g.Go(func() error {
		f.Purpose = generateOr(gctx, gen, purposePrompt, FactUnavailable)
		return nil
	})
	_ = g.Wait()
	return f
}

func generateOr(ctx context.Context, gen Generator, prompt, fallback string) string {
	text, err := gen.Generate(ctx, prompt)
	if err != nil || text == "" {
		return fallback
	}
	return text
}
