package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/gravlab/internal/diag"
)

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)

	empty := c.String()
	if strings.ContainsFunc(empty, func(r rune) bool { return r != 0x2800 && r != '\n' }) {
		t.Error("fresh canvas should be blank")
	}

	c.Set(0, 0)
	if c.String() == empty {
		t.Error("Set left the canvas blank")
	}

	c.Clear()
	if c.String() != empty {
		t.Error("Clear did not restore the blank canvas")
	}
}

func TestCanvasIgnoresOutOfRange(t *testing.T) {
	c := NewCanvas(2, 2)
	before := c.String()
	c.Set(-1, 0)
	c.Set(0, -3)
	c.Set(100, 0)
	c.Set(0, 100)
	if c.String() != before {
		t.Error("out-of-range dots must be dropped")
	}
}

func TestCanvasPlotOrientation(t *testing.T) {
	c := NewCanvas(10, 10)
	c.Plot(0, 0.9, 1.0) // near the top
	lines := strings.Split(c.String(), "\n")
	topHalf := strings.Join(lines[:5], "")
	if !strings.ContainsFunc(topHalf, func(r rune) bool { return r != 0x2800 }) {
		t.Error("positive y should land in the upper half of the canvas")
	}
}

func TestSeriesPlots(t *testing.T) {
	sums := []diag.Summary{
		{Time: 0, Kinetic: 0.1, Potential: -0.3, Total: -0.2, Virial: 0.33},
		{Time: 1, Kinetic: 0.12, Potential: -0.32, Total: -0.2, Virial: 0.375},
		{Time: 2, Kinetic: 0.15, Potential: -0.35, Total: -0.2, Virial: 0.43},
	}
	for name, plot := range map[string]string{
		"energy": EnergyPlot(sums, 30, 5),
		"virial": VirialPlot(sums, 30, 5),
		"drift":  DriftPlot(sums, 30, 5),
	} {
		if !strings.Contains(plot, "3 samples") {
			t.Errorf("%s plot missing sample footer:\n%s", name, plot)
		}
	}

	if got := EnergyPlot(sums[:1], 30, 5); !strings.Contains(got, "not enough samples") {
		t.Errorf("single sample should not plot, got %q", got)
	}
}
