package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestCreateHorizontalBarIncludesLabelAndSuffix(t *testing.T) {
	bar := BarData{Label: "enqueue", Value: 100, Percentage: 100, Style: lipgloss.NewStyle(), Suffix: "<-"}
	line := CreateHorizontalBar(bar, DefaultBarConfig(10))
	if !strings.Contains(line, "enqueue") {
		t.Fatalf("expected label in rendered bar, got %q", line)
	}
	if !strings.Contains(line, "<-") {
		t.Fatalf("expected suffix in rendered bar, got %q", line)
	}
}

func TestCreateHorizontalBarChartRendersTitleAndAllBars(t *testing.T) {
	bars := []BarData{
		{Label: "read", Percentage: 100, Style: lipgloss.NewStyle()},
		{Label: "write", Percentage: 0, Style: lipgloss.NewStyle()},
	}
	chart := CreateHorizontalBarChart("phases", bars, DefaultBarConfig(8))
	if !strings.HasPrefix(chart, "phases") {
		t.Fatalf("expected chart to start with title, got %q", chart)
	}
	if !strings.Contains(chart, "read") || !strings.Contains(chart, "write") {
		t.Fatalf("expected both bar labels present, got %q", chart)
	}
}
