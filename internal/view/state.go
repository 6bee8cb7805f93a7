package view

import (
	"fmt"
	"sync"

	"github.com/gauge-analytics/influence/internal/domain"
	"github.com/gauge-analytics/influence/internal/metrics"
	"github.com/gauge-analytics/influence/internal/rank"
	"github.com/gauge-analytics/influence/internal/segment"
)

// State is the owned view-model state: the four collections, the toggle
// state, the sort spec and the optional segment. Mutators are the only write
// path; every mutation bumps a version number so derived artifacts can be
// memoized by version without ever serving stale data.
//
// Derivations run eagerly on every read. That is a correctness-over-
// efficiency choice: the datasets are hundreds to low-thousands of records.
type State struct {
	mu           sync.RWMutex
	brands       []domain.Brand
	types        []domain.InteractionType
	users        []domain.User
	interactions []domain.Interaction

	filters  domain.FilterState
	sortSpec domain.SortSpec
	seg      *segment.Segment

	version uint64
}

// NewState returns an empty state with all filters enabled and the default
// sort spec. Every derivation degrades gracefully to empty/zero until the
// resources load.
func NewState() *State {
	return &State{
		filters:  domain.NewFilterState(),
		sortSpec: domain.DefaultSortSpec(),
	}
}

// SetBrands replaces the brand collection.
func (s *State) SetBrands(brands []domain.Brand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brands = brands
	s.version++
}

// SetUsers replaces the user collection.
func (s *State) SetUsers(users []domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.version++
}

// SetInteractions replaces the interaction collection together with the
// types extracted from it; the two always change as a unit.
func (s *State) SetInteractions(interactions []domain.Interaction, types []domain.InteractionType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = interactions
	s.types = types
	s.version++
}

// ToggleFilter flips one demographic toggle.
func (s *State) ToggleFilter(category, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.filters.Toggle(category, value); err != nil {
		return err
	}
	s.version++
	return nil
}

// ToggleBrand flips the activation flag of one brand.
func (s *State) ToggleBrand(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.brands {
		if s.brands[i].ID == id {
			s.brands[i].Active = !s.brands[i].Active
			s.version++
			return nil
		}
	}
	return fmt.Errorf("unknown brand: %s", id)
}

// ToggleType flips the activation flag of one interaction type.
func (s *State) ToggleType(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.types {
		if s.types[i].ID == id {
			s.types[i].Active = !s.types[i].Active
			s.version++
			return nil
		}
	}
	return fmt.Errorf("unknown interaction type: %s", id)
}

// SortUsersBy replaces the sort spec. The ranked list re-derives on the next
// read.
func (s *State) SortUsersBy(orderBy, order string) error {
	spec := domain.SortSpec{OrderBy: orderBy, Order: order}
	if err := rank.ValidateSpec(spec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortSpec = spec
	s.version++
	return nil
}

// SetSegment compiles and installs a segment expression; the empty string
// clears it. A failed compile leaves the active segment untouched.
func (s *State) SetSegment(expression string) error {
	var seg *segment.Segment
	if expression != "" {
		compiled, err := segment.Compile(expression)
		if err != nil {
			return err
		}
		seg = compiled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seg = seg
	s.version++
	return nil
}

// Version returns the current state version.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Filters returns a copy of the toggle state.
func (s *State) Filters() domain.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.Clone()
}

// Sort returns the active sort spec.
func (s *State) Sort() domain.SortSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortSpec
}

// Segment returns the active segment expression, empty if none.
func (s *State) Segment() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.seg == nil {
		return ""
	}
	return s.seg.Expression()
}

// Brands returns a copy of the brand collection, activation flags included.
func (s *State) Brands() []domain.Brand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Brand(nil), s.brands...)
}

// Types returns a copy of the interaction type collection.
func (s *State) Types() []domain.InteractionType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.InteractionType(nil), s.types...)
}

// FilteredUsers derives the users passing the demographic toggles and the
// segment.
func (s *State) FilteredUsers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterUsers(s.users, s.filters, s.seg)
}

// ActiveBrands derives the brands with activation enabled.
func (s *State) ActiveBrands() []domain.Brand {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ActiveBrands(s.brands)
}

// ActiveTypes derives the interaction types with activation enabled.
func (s *State) ActiveTypes() []domain.InteractionType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ActiveTypes(s.types)
}

// FilteredInteractions derives the interactions joining filtered users,
// active brands and active types.
func (s *State) FilteredInteractions() []domain.Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filteredInteractionsLocked()
}

func (s *State) filteredInteractionsLocked() []domain.Interaction {
	filteredUsers := FilterUsers(s.users, s.filters, s.seg)
	return FilterInteractions(s.interactions, filteredUsers, ActiveBrands(s.brands), ActiveTypes(s.types))
}

// InfluentialUsers derives the ranked list under the active sort spec.
func (s *State) InfluentialUsers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return InfluentialUsers(s.users, s.filteredInteractionsLocked(), s.sortSpec)
}

// TotalInteractions is the size of the filtered interaction set.
func (s *State) TotalInteractions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filteredInteractionsLocked())
}

// TotalUsers is the size of the influential user list.
func (s *State) TotalUsers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(InfluentialUsers(s.users, s.filteredInteractionsLocked(), s.sortSpec))
}

// PercentageOfInfluence is a user's share of the total filtered interaction
// volume, e.g. "66.67%".
func (s *State) PercentageOfInfluence(userID int64) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filtered := s.filteredInteractionsLocked()
	return metrics.Percentage(len(filtered), CountForUser(filtered, userID))
}

// PercentageOfInteraction is the share of a user's interactions that are of
// the given type.
func (s *State) PercentageOfInteraction(userID int64, typeID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filtered := s.filteredInteractionsLocked()
	return metrics.Percentage(
		CountForUser(filtered, userID),
		CountForUserType(filtered, userID, typeID),
	)
}

// RankedUser is an influential user together with their influence share.
type RankedUser struct {
	domain.User
	Influence string `json:"influence"`
}

// Model is one consistent snapshot of the full view-model surface.
type Model struct {
	Version           uint64                   `json:"version"`
	TotalUsers        int                      `json:"totalUsers"`
	TotalInteractions int                      `json:"totalInteractions"`
	Filters           domain.FilterState       `json:"filters"`
	Sort              domain.SortSpec          `json:"sort"`
	Segment           string                   `json:"segment,omitempty"`
	Brands            []domain.Brand           `json:"brands"`
	Types             []domain.InteractionType `json:"types"`
	InfluentialUsers  []RankedUser             `json:"influentialUsers"`
}

// Snapshot derives everything under one read lock so readers never observe a
// view inconsistent with the latest filter and entity state.
func (s *State) Snapshot() Model {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := s.filteredInteractionsLocked()
	influential := InfluentialUsers(s.users, filtered, s.sortSpec)

	ranked := make([]RankedUser, 0, len(influential))
	for _, u := range influential {
		ranked = append(ranked, RankedUser{
			User:      u,
			Influence: metrics.Percentage(len(filtered), u.TotalInteractions),
		})
	}

	segExpr := ""
	if s.seg != nil {
		segExpr = s.seg.Expression()
	}

	return Model{
		Version:           s.version,
		TotalUsers:        len(influential),
		TotalInteractions: len(filtered),
		Filters:           s.filters.Clone(),
		Sort:              s.sortSpec,
		Segment:           segExpr,
		Brands:            append([]domain.Brand(nil), s.brands...),
		Types:             append([]domain.InteractionType(nil), s.types...),
		InfluentialUsers:  ranked,
	}
}
