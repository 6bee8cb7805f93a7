// Package rank implements the stable multi-key sort over the influential
// user list.
package rank

import (
	"fmt"
	"sort"

	"github.com/gauge-analytics/influence/internal/domain"
)

// Sortable primary keys. Dynamic field-path resolution from the original UI
// is replaced by this fixed enumerated set.
const (
	KeyTotalInteractions = "totalInteractions"
	KeyFullName          = "fullName"
	KeyFirstName         = "firstName"
	KeyAge               = "age"
)

// ValidateSpec rejects unknown sort keys and directions at the boundary.
func ValidateSpec(spec domain.SortSpec) error {
	switch spec.OrderBy {
	case KeyTotalInteractions, KeyFullName, KeyFirstName, KeyAge:
	default:
		return fmt.Errorf("unknown sort key: %s", spec.OrderBy)
	}
	switch spec.Order {
	case domain.OrderAsc, domain.OrderDesc:
	default:
		return fmt.Errorf("unknown sort direction: %s", spec.Order)
	}
	return nil
}

// Sort orders users in place by the primary key and direction of spec, with
// the first-name tie-break always ascending regardless of the primary
// direction. The sort is stable.
func Sort(users []domain.User, spec domain.SortSpec) {
	desc := spec.Order == domain.OrderDesc
	sort.SliceStable(users, func(i, j int) bool {
		c := comparePrimary(users[i], users[j], spec.OrderBy)
		if c == 0 {
			return users[i].Name.First < users[j].Name.First
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func comparePrimary(a, b domain.User, key string) int {
	switch key {
	case KeyFullName:
		return compareStrings(a.FullName, b.FullName)
	case KeyFirstName:
		return compareStrings(a.Name.First, b.Name.First)
	case KeyAge:
		return compareInts(a.Age, b.Age)
	default:
		return compareInts(a.TotalInteractions, b.TotalInteractions)
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
