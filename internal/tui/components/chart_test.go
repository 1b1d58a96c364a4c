package components

import (
	"testing"

	"finsight/internal/tui/theme"
)

func TestFormatChartLabelCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0.5, "$0.50"},
		{40, "$40"},
		{2500, "$2.5k"},
		{40000, "$40k"},
		{2500000, "$2.5M"},
		{3e9, "$3B"},
		{-1500, "-$1.5k"},
	}
	for _, c := range cases {
		if got := formatChartLabel(c.in); got != c.want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDeltaColorFollowsSign(t *testing.T) {
	th := theme.Active
	if got := deltaColor("+$1,200"); got != th.Green {
		t.Errorf("positive delta color = %v, want green", got)
	}
	if got := deltaColor("-$300"); got != th.Red {
		t.Errorf("negative delta color = %v, want red", got)
	}
	if got := deltaColor(""); got != th.TextDim {
		t.Errorf("empty delta color = %v, want dim", got)
	}
}

func TestLayoutRowSumsExactly(t *testing.T) {
	widths := LayoutRow(100, 6)
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if sum != 100 {
		t.Fatalf("widths %v sum to %d, want 100", widths, sum)
	}
}
