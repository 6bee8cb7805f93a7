// Package normalize turns raw JSON resource payloads into typed entity
// collections: deduplication by identity key, derived user fields, and
// interaction-type extraction.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/gauge-analytics/influence/internal/domain"
)

// ErrMalformedRecord is wrapped by every validation failure. The feed risked
// silently undefined fields; here a missing or ill-typed required field fails
// the whole resource parse instead.
var ErrMalformedRecord = errors.New("malformed record")

// Normalizer parses raw resource payloads. The "now" it carries is fixed at
// construction so user ages match the load instant, not later reads.
type Normalizer struct {
	now time.Time
}

// New creates a normalizer with the given reference time.
func New(now time.Time) *Normalizer {
	return &Normalizer{now: now.UTC()}
}

type rawBrand struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

type rawName struct {
	Title string  `json:"title"`
	First *string `json:"first"`
	Last  *string `json:"last"`
}

type rawLocation struct {
	Street   flexString `json:"street"`
	City     flexString `json:"city"`
	State    flexString `json:"state"`
	Postcode flexString `json:"postcode"`
}

type rawUser struct {
	ID       *int64      `json:"id"`
	Gender   *string     `json:"gender"`
	Name     *rawName    `json:"name"`
	Email    string      `json:"email"`
	DOB      *int64      `json:"dob"`
	Phone    string      `json:"phone"`
	Cell     string      `json:"cell"`
	Nat      string      `json:"nat"`
	Location rawLocation `json:"location"`
}

type rawInteraction struct {
	User  *int64  `json:"user"`
	Brand *string `json:"brand"`
	Type  *string `json:"type"`
}

// Brands parses the brands payload: dedupe by id keeping the first
// occurrence, sort by name ascending, activate.
func (n *Normalizer) Brands(payload []byte) ([]domain.Brand, error) {
	var raws []rawBrand
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, fmt.Errorf("decode brands: %w", err)
	}

	seen := make(map[string]bool, len(raws))
	brands := make([]domain.Brand, 0, len(raws))
	for i, r := range raws {
		if r.ID == nil {
			return nil, fmt.Errorf("%w: brands[%d]: missing id", ErrMalformedRecord, i)
		}
		if r.Name == nil {
			return nil, fmt.Errorf("%w: brands[%d]: missing name", ErrMalformedRecord, i)
		}
		if seen[*r.ID] {
			continue
		}
		seen[*r.ID] = true
		brands = append(brands, domain.Brand{ID: *r.ID, Name: *r.Name, Active: true})
	}

	sort.SliceStable(brands, func(i, j int) bool {
		return brands[i].Name < brands[j].Name
	})
	return brands, nil
}

// Users parses the users payload: dedupe by id keeping the first occurrence,
// then derive age, age group and full name against the fixed "now".
func (n *Normalizer) Users(payload []byte) ([]domain.User, error) {
	var raws []rawUser
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	seen := make(map[int64]bool, len(raws))
	users := make([]domain.User, 0, len(raws))
	for i, r := range raws {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("%w: users[%d]: %v", ErrMalformedRecord, i, err)
		}
		if seen[*r.ID] {
			continue
		}
		seen[*r.ID] = true

		age := Age(*r.DOB, n.now)
		ageGroup := domain.AgeGroupTens
		if age > 18 {
			ageGroup = domain.AgeGroupAdults
		}
		name := domain.Name{
			Title: r.Name.Title,
			First: *r.Name.First,
			Last:  *r.Name.Last,
		}
		users = append(users, domain.User{
			ID:     *r.ID,
			Gender: *r.Gender,
			Name:   name,
			Email:  r.Email,
			DOB:    *r.DOB,
			Phone:  r.Phone,
			Cell:   r.Cell,
			Nat:    r.Nat,
			Location: domain.Location{
				Street:   string(r.Location.Street),
				City:     string(r.Location.City),
				State:    string(r.Location.State),
				Postcode: string(r.Location.Postcode),
			},
			Age:      age,
			AgeGroup: ageGroup,
			FullName: FullName(name),
		})
	}
	return users, nil
}

func (r rawUser) validate() error {
	if r.ID == nil {
		return errors.New("missing id")
	}
	if r.Gender == nil {
		return errors.New("missing gender")
	}
	if *r.Gender != domain.GenderMale && *r.Gender != domain.GenderFemale {
		return fmt.Errorf("unknown gender %q", *r.Gender)
	}
	if r.DOB == nil {
		return errors.New("missing dob")
	}
	if r.Name == nil || r.Name.First == nil || r.Name.Last == nil {
		return errors.New("incomplete name")
	}
	return nil
}

// Interactions parses the interactions payload. No deduplication: volume and
// exact duplicates are meaningful. Type extraction runs as part of the same
// pass so the type collection exists before any percentage iterates it.
func (n *Normalizer) Interactions(payload []byte) ([]domain.Interaction, []domain.InteractionType, error) {
	var raws []rawInteraction
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, nil, fmt.Errorf("decode interactions: %w", err)
	}

	interactions := make([]domain.Interaction, 0, len(raws))
	for i, r := range raws {
		if r.User == nil || r.Brand == nil || r.Type == nil {
			return nil, nil, fmt.Errorf("%w: interactions[%d]: missing reference field", ErrMalformedRecord, i)
		}
		interactions = append(interactions, domain.Interaction{
			UserID:  *r.User,
			BrandID: *r.Brand,
			TypeID:  strings.ToUpper(*r.Type),
		})
	}
	return interactions, ExtractTypes(raws), nil
}

// ExtractTypes produces one InteractionType per distinct raw type value,
// first occurrence wins, sorted by display name ascending.
func ExtractTypes(raws []rawInteraction) []domain.InteractionType {
	seen := make(map[string]bool, len(raws))
	types := make([]domain.InteractionType, 0, 8)
	for _, r := range raws {
		if r.Type == nil || seen[*r.Type] {
			continue
		}
		seen[*r.Type] = true
		types = append(types, domain.InteractionType{
			ID:     strings.ToUpper(*r.Type),
			Name:   UpperFirst(strings.ToLower(*r.Type)),
			Active: true,
		})
	}
	sort.SliceStable(types, func(i, j int) bool {
		return types[i].Name < types[j].Name
	})
	return types
}

// Age computes whole calendar years between dob (epoch seconds) and now:
// subtract the birth year, decrement if the birthday has not yet occurred.
func Age(dob int64, now time.Time) int {
	birth := time.Unix(dob, 0).UTC()
	now = now.UTC()
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// FullName joins the capitalized non-empty name parts with single spaces.
func FullName(n domain.Name) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.Title, n.First, n.Last} {
		if p == "" {
			continue
		}
		parts = append(parts, UpperFirst(p))
	}
	return strings.Join(parts, " ")
}

// UpperFirst upper-cases the first rune and leaves the rest untouched.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// flexString decodes either a JSON string or a JSON number; the feed is not
// consistent about postcodes.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*f = flexString(num.String())
	return nil
}
