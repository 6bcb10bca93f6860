package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gravlab/internal/diag"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// EnergyPlot charts the total energy of a sampled run.
func EnergyPlot(sums []diag.Summary, width, height int) string {
	return seriesPlot("total energy", sums, width, height, func(s diag.Summary) float64 {
		return s.Total
	})
}

// VirialPlot charts -K/W; a virialized system hovers near 0.5.
func VirialPlot(sums []diag.Summary, width, height int) string {
	return seriesPlot("virial ratio -K/W", sums, width, height, func(s diag.Summary) float64 {
		return s.Virial
	})
}

// DriftPlot charts the relative energy deviation from the first sample.
func DriftPlot(sums []diag.Summary, width, height int) string {
	if len(sums) == 0 || sums[0].Total == 0 {
		return labelStyle.Render("(no reference energy)")
	}
	e0 := sums[0].Total
	return seriesPlot("relative energy drift", sums, width, height, func(s diag.Summary) float64 {
		return (s.Total - e0) / e0
	})
}

func seriesPlot(caption string, sums []diag.Summary, width, height int, f func(diag.Summary) float64) string {
	if len(sums) < 2 {
		return labelStyle.Render("(not enough samples to plot)")
	}
	series := make([]float64, len(sums))
	for i, s := range sums {
		series[i] = f(s)
	}
	chart := asciigraph.Plot(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
	footer := fmt.Sprintf("t = %.3g .. %.3g  (%d samples)",
		sums[0].Time, sums[len(sums)-1].Time, len(sums))
	return graphStyle.Render(chart) + "\n" + labelStyle.Render(footer)
}

// RunHeader renders a one-line banner for a stored run.
func RunHeader(id, problem, scheme string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.ToUpper(problem)))
	b.WriteString(labelStyle.Render(fmt.Sprintf("  %s  [%s]", scheme, id)))
	return b.String()
}
