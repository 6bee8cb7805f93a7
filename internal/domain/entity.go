// Package domain defines the core entities and component contracts for the
// influence analytics service.
package domain

// Brand is a normalized brand record. Active is mutable UI state controlling
// inclusion in aggregates; everything else is fixed after normalization.
type Brand struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// InteractionType is derived from the distinct type values observed in the
// interaction feed. ID is the canonical upper-case code, Name the display
// label.
type InteractionType struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Name holds the parts of a user's name as delivered by the feed.
type Name struct {
	Title string `json:"title"`
	First string `json:"first"`
	Last  string `json:"last"`
}

// Location holds the address fields exported for a user.
type Location struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
}

// User is a normalized user record. Age, AgeGroup and FullName are computed
// once at normalization time against a fixed "now" and never recomputed.
// TotalInteractions is not persisted state: the aggregation engine sets it on
// every pass as a function of the current filters.
type User struct {
	ID       int64    `json:"id"`
	Gender   string   `json:"gender"`
	Name     Name     `json:"name"`
	Email    string   `json:"email"`
	DOB      int64    `json:"dob"`
	Phone    string   `json:"phone"`
	Cell     string   `json:"cell"`
	Nat      string   `json:"nat"`
	Location Location `json:"location"`

	Age               int    `json:"age"`
	AgeGroup          string `json:"ageGroup"`
	FullName          string `json:"fullName"`
	TotalInteractions int    `json:"totalInteractions"`
}

// Interaction links one user, one brand and one interaction type by identity
// key. Immutable after normalization; exact duplicates are meaningful and are
// never collapsed.
type Interaction struct {
	UserID  int64  `json:"user"`
	BrandID string `json:"brand"`
	TypeID  string `json:"type"`
}

// Gender values accepted by the normalizer.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Age groups. Users older than 18 at normalization time are adults.
const (
	AgeGroupTens   = "tens"
	AgeGroupAdults = "adults"
)
