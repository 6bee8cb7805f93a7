// Package view owns the session state and the pure derivations that turn the
// normalized collections plus filter state into filtered subsets, ranked
// lists and totals.
package view

import (
	"github.com/gauge-analytics/influence/internal/domain"
	"github.com/gauge-analytics/influence/internal/rank"
	"github.com/gauge-analytics/influence/internal/segment"
)

// FilterUsers returns the users whose gender and age-group flags are both
// enabled and who match the active segment, if any. Inputs are not mutated.
func FilterUsers(users []domain.User, filters domain.FilterState, seg *segment.Segment) []domain.User {
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if !filters.Check(domain.FilterGender, u.Gender) ||
			!filters.Check(domain.FilterAgeGroup, u.AgeGroup) {
			continue
		}
		if seg != nil {
			ok, err := seg.Match(u)
			if err != nil || !ok {
				// An evaluation error excludes the user, same as a
				// non-matching expression.
				continue
			}
		}
		out = append(out, u)
	}
	return out
}

// ActiveBrands returns the brands whose activation flag is set.
func ActiveBrands(brands []domain.Brand) []domain.Brand {
	out := make([]domain.Brand, 0, len(brands))
	for _, b := range brands {
		if b.Active {
			out = append(out, b)
		}
	}
	return out
}

// ActiveTypes returns the interaction types whose activation flag is set.
func ActiveTypes(types []domain.InteractionType) []domain.InteractionType {
	out := make([]domain.InteractionType, 0, len(types))
	for _, t := range types {
		if t.Active {
			out = append(out, t)
		}
	}
	return out
}

// FilterInteractions returns the interactions whose user, brand and type all
// resolve against the given collections. Membership is tested by identity
// key, so rebuilt entity slices keep matching. An interaction with a missing
// reference is silently excluded, never an error.
func FilterInteractions(interactions []domain.Interaction, users []domain.User, brands []domain.Brand, types []domain.InteractionType) []domain.Interaction {
	userSet := make(map[int64]struct{}, len(users))
	for _, u := range users {
		userSet[u.ID] = struct{}{}
	}
	brandSet := make(map[string]struct{}, len(brands))
	for _, b := range brands {
		brandSet[b.ID] = struct{}{}
	}
	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[t.ID] = struct{}{}
	}

	out := make([]domain.Interaction, 0, len(interactions))
	for _, in := range interactions {
		if _, ok := userSet[in.UserID]; !ok {
			continue
		}
		if _, ok := brandSet[in.BrandID]; !ok {
			continue
		}
		if _, ok := typeSet[in.TypeID]; !ok {
			continue
		}
		out = append(out, in)
	}
	return out
}

// CountForUser counts the interactions attributed to one user.
func CountForUser(interactions []domain.Interaction, userID int64) int {
	n := 0
	for _, in := range interactions {
		if in.UserID == userID {
			n++
		}
	}
	return n
}

// CountForUserType counts the interactions of one type attributed to one user.
func CountForUserType(interactions []domain.Interaction, userID int64, typeID string) int {
	n := 0
	for _, in := range interactions {
		if in.UserID == userID && in.TypeID == typeID {
			n++
		}
	}
	return n
}

// InfluentialUsers builds the ranked list. It iterates the FULL user
// collection, not the filtered one: a user excluded by a demographic filter
// drops out implicitly because none of their interactions survive the
// filtered set, so demographic and activation filters compose identically
// through the count gate. Users are copied; the stored collection is never
// mutated by a derivation pass.
func InfluentialUsers(users []domain.User, filteredInteractions []domain.Interaction, spec domain.SortSpec) []domain.User {
	counts := make(map[int64]int, len(users))
	for _, in := range filteredInteractions {
		counts[in.UserID]++
	}

	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		c := counts[u.ID]
		if c == 0 {
			continue
		}
		u.TotalInteractions = c
		out = append(out, u)
	}

	rank.Sort(out, spec)
	return out
}
