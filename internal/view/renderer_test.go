package view

import (
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ellarises/ella-rises/internal/repository"
)

func TestRendererParsesAllPages(t *testing.T) {
	r := New() // panics on a malformed template
	if len(r.pages) == 0 {
		t.Fatal("no page templates parsed")
	}
	if _, ok := r.pages["layout"]; ok {
		t.Error("layout registered as a page")
	}
}

func TestRenderHomeWithSnapshot(t *testing.T) {
	r := New()
	var sat float64 = 4.7
	snap := &repository.ImpactSnapshot{
		AttendedParticipants: 12,
		AvgSatisfaction:      &sat,
		MilestonesAchieved:   30,
		DonationTotal:        1234.5,
	}
	var b strings.Builder
	err := r.Render(&b, "home", echo.Map{
		"Title":    "Welcome",
		"Snapshot": snap,
	}, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := b.String()
	for _, want := range []string{"$1234.50", "4.7", "12", "30"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderHomeWithoutSnapshot(t *testing.T) {
	r := New()
	var b strings.Builder
	if err := r.Render(&b, "home", echo.Map{"Title": "Welcome"}, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(b.String(), "participants served") {
		t.Error("KPI section rendered with no snapshot")
	}
}

func TestRenderNilAverageShowsPlaceholder(t *testing.T) {
	r := New()
	var b strings.Builder
	err := r.Render(&b, "home", echo.Map{
		"Title":    "Welcome",
		"Snapshot": &repository.ImpactSnapshot{},
	}, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(b.String(), "—") {
		t.Error("nil average did not render the placeholder")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := New()
	var b strings.Builder
	if err := r.Render(&b, "no_such_page", nil, nil); err == nil {
		t.Error("unknown template rendered without error")
	}
}
