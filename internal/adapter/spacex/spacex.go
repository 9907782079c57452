// Package spacex builds fetch descriptors for the SpaceX REST API (v4).
package spacex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/fetch"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// DashboardPayloads is the number of payload cards on the landing page.
const DashboardPayloads = 8

// crewConcurrency bounds parallel crew lookups for one launch.
const crewConcurrency = 4

func get(path string) func() (upstream.Request, error) {
	return func() (upstream.Request, error) {
		return upstream.Request{Path: path}, nil
	}
}

// byID rejects blank ids before any network call.
func byID(prefix, id string) func() (upstream.Request, error) {
	id = strings.TrimSpace(id)
	return func() (upstream.Request, error) {
		if id == "" {
			return upstream.Request{}, fmt.Errorf("%w: empty id", domain.ErrInvalid)
		}
		return upstream.Request{Path: prefix + url.PathEscape(id)}, nil
	}
}

// LatestLaunch describes /launches/latest.
func LatestLaunch() fetch.Descriptor[domain.LaunchSummary] {
	return fetch.Descriptor[domain.LaunchSummary]{
		Source:    "latest launch",
		Request:   get("/launches/latest"),
		Normalize: domain.NormalizeLaunch,
	}
}

// NextLaunch describes /launches/next.
func NextLaunch() fetch.Descriptor[domain.LaunchSummary] {
	return fetch.Descriptor[domain.LaunchSummary]{
		Source:    "next launch",
		Request:   get("/launches/next"),
		Normalize: domain.NormalizeLaunch,
	}
}

// Launch describes /launches/{id}.
func Launch(id string) fetch.Descriptor[domain.LaunchSummary] {
	return fetch.Descriptor[domain.LaunchSummary]{
		Source:    "launch",
		Request:   byID("/launches/", id),
		Normalize: domain.NormalizeLaunch,
	}
}

// Payloads describes /payloads, keeping the first limit entries.
func Payloads(limit int) fetch.Descriptor[[]domain.Payload] {
	return fetch.Descriptor[[]domain.Payload]{
		Source:  "payloads",
		Request: get("/payloads"),
		Normalize: func(body []byte) ([]domain.Payload, error) {
			return domain.NormalizePayloads(body, limit)
		},
	}
}

// Payload describes /payloads/{id}.
func Payload(id string) fetch.Descriptor[domain.Payload] {
	return fetch.Descriptor[domain.Payload]{
		Source:    "payload",
		Request:   byID("/payloads/", id),
		Normalize: domain.NormalizePayload,
	}
}

// Launchpads describes /launchpads.
func Launchpads() fetch.Descriptor[[]domain.Launchpad] {
	return fetch.Descriptor[[]domain.Launchpad]{
		Source:    "launchpads",
		Request:   get("/launchpads"),
		Normalize: domain.NormalizeLaunchpads,
	}
}

// Launchpad describes /launchpads/{id}.
func Launchpad(id string) fetch.Descriptor[domain.Launchpad] {
	return fetch.Descriptor[domain.Launchpad]{
		Source:    "launchpad",
		Request:   byID("/launchpads/", id),
		Normalize: domain.NormalizeLaunchpad,
	}
}

// Crew describes /crew/{id}.
func Crew(id string) fetch.Descriptor[domain.CrewMember] {
	return fetch.Descriptor[domain.CrewMember]{
		Source:    "crew member",
		Request:   byID("/crew/", id),
		Normalize: domain.NormalizeCrewMember,
	}
}

// ResolveCrew looks up every crew id through its own cell and returns the
// members in input order. Members whose lookup fails are left out.
func ResolveCrew(ctx context.Context, r upstream.Requester, ids []string, opts ...fetch.Option) []domain.CrewMember {
	results := make([]*domain.CrewMember, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(crewConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			cell := fetch.NewCell(r, Crew(id), opts...)
			defer cell.Close()
			if st := cell.Fetch(gctx); st.Status == fetch.StatusReady {
				m := st.Data
				results[i] = &m
			}
			return nil
		})
	}
	_ = g.Wait()

	crew := make([]domain.CrewMember, 0, len(ids))
	for _, m := range results {
		if m != nil {
			crew = append(crew, *m)
		}
	}
	return crew
}

// LaunchWithCrew fetches a launch through cell and joins its crew.
func LaunchWithCrew(ctx context.Context, r upstream.Requester, d fetch.Descriptor[domain.LaunchSummary], opts ...fetch.Option) fetch.State[domain.LaunchDetail] {
	cell := fetch.NewCell(r, d, opts...)
	defer cell.Close()

	st := cell.Fetch(ctx)
	out := fetch.State[domain.LaunchDetail]{
		Status:  st.Status,
		Err:     st.Err,
		Message: st.Message,
		Seq:     st.Seq,
	}
	if st.Status != fetch.StatusReady {
		return out
	}
	out.Data = domain.LaunchDetail{
		Launch: st.Data,
		Crew:   ResolveCrew(ctx, r, st.Data.CrewIDs(), opts...),
	}
	return out
}
