package domain

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

const notAvailable = "N/A"

// Launch outcomes as shown to users.
const (
	OutcomeSuccess  = "Launch Successful"
	OutcomeFailure  = "Launch Unsuccessful"
	OutcomeUnknown  = "No details available."
	OutcomeUpcoming = "Upcoming Launch"
)

// CrewRef is one crew entry on a launch.
type CrewRef struct {
	ID   string `json:"crew"`
	Role string `json:"role,omitempty"`
}

// UnmarshalJSON accepts both a bare id string and a {"crew","role"} object.
func (c *CrewRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*c = CrewRef{ID: id}
		return nil
	}
	type plain CrewRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CrewRef(p)
	return nil
}

// LaunchLinks holds external media for a launch. Missing links are empty.
type LaunchLinks struct {
	YouTubeID string `json:"youtube_id,omitempty"`
	Wikipedia string `json:"wikipedia,omitempty"`
	Webcast   string `json:"webcast,omitempty"`
	Patch     string `json:"patch,omitempty"`
}

// LaunchSummary is the view model of a single SpaceX launch.
type LaunchSummary struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	FlightNumber int         `json:"flight_number"`
	DateUTC      string      `json:"date_utc"`
	Success      *bool       `json:"success"`
	Upcoming     bool        `json:"upcoming"`
	Outcome      string      `json:"outcome"`
	Crew         []CrewRef   `json:"crew"`
	Links        LaunchLinks `json:"links"`
	Details      string      `json:"details"`
}

// CrewIDs returns the crew ids in launch order.
func (l LaunchSummary) CrewIDs() []string {
	ids := make([]string, 0, len(l.Crew))
	for _, c := range l.Crew {
		if c.ID != "" {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// CrewMember is a SpaceX astronaut.
type CrewMember struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Agency    string `json:"agency"`
	Image     string `json:"image,omitempty"`
	Wikipedia string `json:"wikipedia,omitempty"`
	Status    string `json:"status"`
}

// LaunchDetail joins a launch with its resolved crew.
type LaunchDetail struct {
	Launch LaunchSummary `json:"launch"`
	Crew   []CrewMember  `json:"crew"`
}

// Payload is a SpaceX payload card.
type Payload struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Customers       []string `json:"customers"`
	Nationalities   []string `json:"nationalities"`
	CustomerList    string   `json:"customer_list"`
	NationalityList string   `json:"nationality_list"`
	Orbit           string   `json:"orbit"`
	ReferenceSystem string   `json:"reference_system"`
	MassKg          float64  `json:"mass_kg"`
	MassLbs         float64  `json:"mass_lbs"`
	Mass            string   `json:"mass"`
}

// Launchpad is a SpaceX launch site.
type Launchpad struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	FullName  string   `json:"full_name"`
	Locality  string   `json:"locality"`
	Region    string   `json:"region"`
	Status    string   `json:"status"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Details   string   `json:"details"`
	Images    []string `json:"images"`
}

type rawLaunch struct {
	ID           *string   `json:"id"`
	Name         *string   `json:"name"`
	FlightNumber *int      `json:"flight_number"`
	DateUTC      *string   `json:"date_utc"`
	Success      *bool     `json:"success"`
	Upcoming     bool      `json:"upcoming"`
	Details      *string   `json:"details"`
	Crew         []CrewRef `json:"crew"`
	Links        *struct {
		YouTubeID *string `json:"youtube_id"`
		Wikipedia *string `json:"wikipedia"`
		Webcast   *string `json:"webcast"`
		Patch     *struct {
			Small *string `json:"small"`
		} `json:"patch"`
	} `json:"links"`
}

type rawCrewMember struct {
	ID        *string `json:"id"`
	Name      *string `json:"name"`
	Agency    *string `json:"agency"`
	Image     *string `json:"image"`
	Wikipedia *string `json:"wikipedia"`
	Status    *string `json:"status"`
}

type rawPayload struct {
	ID              *string  `json:"id"`
	Name            *string  `json:"name"`
	Type            *string  `json:"type"`
	Customers       []string `json:"customers"`
	Nationalities   []string `json:"nationalities"`
	Orbit           *string  `json:"orbit"`
	ReferenceSystem *string  `json:"reference_system"`
	MassKg          *float64 `json:"mass_kg"`
	MassLbs         *float64 `json:"mass_lbs"`
}

type rawLaunchpad struct {
	ID        *string  `json:"id"`
	Name      *string  `json:"name"`
	FullName  *string  `json:"full_name"`
	Locality  *string  `json:"locality"`
	Region    *string  `json:"region"`
	Status    *string  `json:"status"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Details   *string  `json:"details"`
	Images    *struct {
		Large []string `json:"large"`
	} `json:"images"`
}

// NormalizeLaunch converts a SpaceX /launches/{latest,next,id} body.
func NormalizeLaunch(body []byte) (LaunchSummary, error) {
	var raw rawLaunch
	if err := decode(body, &raw, "launch"); err != nil {
		return LaunchSummary{}, err
	}
	return launchFromRaw(raw), nil
}

func launchFromRaw(raw rawLaunch) LaunchSummary {
	l := LaunchSummary{
		ID:           str(raw.ID, ""),
		Name:         str(raw.Name, notAvailable),
		FlightNumber: intOrZero(raw.FlightNumber),
		DateUTC:      str(raw.DateUTC, notAvailable),
		Success:      raw.Success,
		Upcoming:     raw.Upcoming,
		Outcome:      launchOutcome(raw.Upcoming, raw.Success),
		Crew:         make([]CrewRef, 0, len(raw.Crew)),
		Details:      str(raw.Details, notAvailable),
	}
	for _, c := range raw.Crew {
		if c.ID != "" {
			l.Crew = append(l.Crew, c)
		}
	}
	if raw.Links != nil {
		l.Links = LaunchLinks{
			YouTubeID: str(raw.Links.YouTubeID, ""),
			Wikipedia: str(raw.Links.Wikipedia, ""),
			Webcast:   str(raw.Links.Webcast, ""),
		}
		if raw.Links.Patch != nil {
			l.Links.Patch = str(raw.Links.Patch.Small, "")
		}
	}
	return l
}

func launchOutcome(upcoming bool, success *bool) string {
	switch {
	case upcoming:
		return OutcomeUpcoming
	case success == nil:
		return OutcomeUnknown
	case *success:
		return OutcomeSuccess
	default:
		return OutcomeFailure
	}
}

// NormalizeCrewMember converts a SpaceX /crew/{id} body.
func NormalizeCrewMember(body []byte) (CrewMember, error) {
	var raw rawCrewMember
	if err := decode(body, &raw, "crew member"); err != nil {
		return CrewMember{}, err
	}
	return CrewMember{
		ID:        str(raw.ID, ""),
		Name:      str(raw.Name, notAvailable),
		Agency:    str(raw.Agency, notAvailable),
		Image:     str(raw.Image, ""),
		Wikipedia: str(raw.Wikipedia, ""),
		Status:    str(raw.Status, notAvailable),
	}, nil
}

// NormalizePayloads converts a SpaceX /payloads body, keeping at most limit
// entries in upstream order. A limit of zero or less keeps everything.
func NormalizePayloads(body []byte, limit int) ([]Payload, error) {
	var raws []rawPayload
	if err := decode(body, &raws, "payloads"); err != nil {
		return nil, err
	}
	if limit > 0 && len(raws) > limit {
		raws = raws[:limit]
	}
	out := make([]Payload, 0, len(raws))
	for _, r := range raws {
		out = append(out, payloadFromRaw(r))
	}
	return out, nil
}

// NormalizePayload converts a SpaceX /payloads/{id} body.
func NormalizePayload(body []byte) (Payload, error) {
	var raw rawPayload
	if err := decode(body, &raw, "payload"); err != nil {
		return Payload{}, err
	}
	return payloadFromRaw(raw), nil
}

func payloadFromRaw(r rawPayload) Payload {
	p := Payload{
		ID:              str(r.ID, ""),
		Name:            str(r.Name, "Unknown Payload"),
		Type:            str(r.Type, "Unknown Type"),
		Customers:       nonNil(r.Customers),
		Nationalities:   nonNil(r.Nationalities),
		Orbit:           str(r.Orbit, notAvailable),
		ReferenceSystem: str(r.ReferenceSystem, notAvailable),
		MassKg:          floatOrZero(r.MassKg),
		MassLbs:         floatOrZero(r.MassLbs),
		Mass:            "Unknown",
	}
	p.CustomerList = joinOrNA(p.Customers)
	p.NationalityList = joinOrNA(p.Nationalities)
	if p.MassKg > 0 {
		p.Mass = fmt.Sprintf("%g kg / %g lbs", p.MassKg, p.MassLbs)
	}
	return p
}

// NormalizeLaunchpads converts a SpaceX /launchpads body.
func NormalizeLaunchpads(body []byte) ([]Launchpad, error) {
	var raws []rawLaunchpad
	if err := decode(body, &raws, "launchpads"); err != nil {
		return nil, err
	}
	out := make([]Launchpad, 0, len(raws))
	for _, r := range raws {
		out = append(out, launchpadFromRaw(r))
	}
	return out, nil
}

// NormalizeLaunchpad converts a SpaceX /launchpads/{id} body.
func NormalizeLaunchpad(body []byte) (Launchpad, error) {
	var raw rawLaunchpad
	if err := decode(body, &raw, "launchpad"); err != nil {
		return Launchpad{}, err
	}
	return launchpadFromRaw(raw), nil
}

func launchpadFromRaw(r rawLaunchpad) Launchpad {
	lp := Launchpad{
		ID:        str(r.ID, ""),
		Name:      str(r.Name, notAvailable),
		FullName:  str(r.FullName, notAvailable),
		Locality:  str(r.Locality, notAvailable),
		Region:    str(r.Region, notAvailable),
		Status:    str(r.Status, "unknown"),
		Latitude:  floatOrZero(r.Latitude),
		Longitude: floatOrZero(r.Longitude),
		Details:   str(r.Details, "No details available"),
		Images:    []string{},
	}
	if r.Images != nil {
		lp.Images = nonNil(r.Images.Large)
	}
	return lp
}

// str dereferences s, using def for nil or blank values.
func str(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func joinOrNA(s []string) string {
	if len(s) == 0 {
		return notAvailable
	}
	return strings.Join(s, ", ")
}
