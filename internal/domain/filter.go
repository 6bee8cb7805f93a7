package domain

import "fmt"

// Filter categories for the demographic toggles.
const (
	FilterGender   = "gender"
	FilterAgeGroup = "ageGroup"
)

// Sort directions for the ranked user list.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// FilterState holds the demographic toggle flags. All flags default to true;
// any subset, including the empty one, is permitted and simply yields empty
// derived views.
type FilterState struct {
	Gender   map[string]bool `json:"gender"`
	AgeGroup map[string]bool `json:"ageGroup"`
}

// NewFilterState returns a filter state with every toggle enabled.
func NewFilterState() FilterState {
	return FilterState{
		Gender: map[string]bool{
			GenderMale:   true,
			GenderFemale: true,
		},
		AgeGroup: map[string]bool{
			AgeGroupTens:   true,
			AgeGroupAdults: true,
		},
	}
}

// Check reports whether the given value of a category is currently enabled.
// Unknown categories or values read as disabled.
func (f FilterState) Check(category, value string) bool {
	switch category {
	case FilterGender:
		return f.Gender[value]
	case FilterAgeGroup:
		return f.AgeGroup[value]
	}
	return false
}

// Toggle flips one flag. Unknown categories or values are rejected so a typo
// at the API boundary cannot grow the flag set.
func (f FilterState) Toggle(category, value string) error {
	var flags map[string]bool
	switch category {
	case FilterGender:
		flags = f.Gender
	case FilterAgeGroup:
		flags = f.AgeGroup
	default:
		return fmt.Errorf("unknown filter category: %s", category)
	}
	if _, ok := flags[value]; !ok {
		return fmt.Errorf("unknown %s value: %s", category, value)
	}
	flags[value] = !flags[value]
	return nil
}

// Clone returns an independent copy, so derivations can run against a
// consistent filter state while toggles continue to arrive.
func (f FilterState) Clone() FilterState {
	out := FilterState{
		Gender:   make(map[string]bool, len(f.Gender)),
		AgeGroup: make(map[string]bool, len(f.AgeGroup)),
	}
	for k, v := range f.Gender {
		out.Gender[k] = v
	}
	for k, v := range f.AgeGroup {
		out.AgeGroup[k] = v
	}
	return out
}

// SortSpec is the active sort specification for the ranked user list.
// The secondary key (first name) is fixed and always ascending.
type SortSpec struct {
	OrderBy string `json:"orderBy"`
	Order   string `json:"order"`
}

// DefaultSortSpec ranks by interaction count, highest first.
func DefaultSortSpec() SortSpec {
	return SortSpec{OrderBy: "totalInteractions", Order: OrderDesc}
}
