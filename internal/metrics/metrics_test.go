package metrics

import "testing"

func TestPercentage(t *testing.T) {
	t.Run("ZeroTotal", func(t *testing.T) {
		if got := Percentage(0, 5); got != "0%" {
			t.Errorf("expected \"0%%\", got %q", got)
		}
	})

	t.Run("TwoDecimalRounding", func(t *testing.T) {
		if got := Percentage(3, 2); got != "66.67%" {
			t.Errorf("expected \"66.67%%\", got %q", got)
		}
	})

	t.Run("NoTrailingZeros", func(t *testing.T) {
		if got := Percentage(2, 1); got != "50%" {
			t.Errorf("expected \"50%%\", got %q", got)
		}
	})

	t.Run("FullShare", func(t *testing.T) {
		if got := Percentage(4, 4); got != "100%" {
			t.Errorf("expected \"100%%\", got %q", got)
		}
	})
}

func TestValue(t *testing.T) {
	cases := []struct {
		name         string
		total, value int
		want         float64
	}{
		{"ZeroTotal", 0, 10, 0},
		{"Third", 3, 1, 33.33},
		{"TwoThirds", 3, 2, 66.67},
		{"Half", 2, 1, 50},
		{"ZeroValue", 10, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Value(tc.total, tc.value); got != tc.want {
				t.Errorf("Value(%d, %d) = %v, want %v", tc.total, tc.value, got, tc.want)
			}
		})
	}
}
