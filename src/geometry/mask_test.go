package geometry

import "testing"

func TestDimRegionsNoSelection(t *testing.T) {
	bounds := Rect{W: 200, H: 100}
	got := DimRegions(bounds, Rect{})
	if len(got) != 1 || got[0] != bounds {
		t.Fatalf("expected whole surface dimmed, got %v", got)
	}
}

func TestDimRegionsMatchEvenOdd(t *testing.T) {
	bounds := Rect{W: 200, H: 100}
	selections := []Rect{
		{X: 20, Y: 30, W: 50, H: 40},
		{X: 0, Y: 0, W: 50, H: 100},
		{X: 150, Y: 60, W: 100, H: 100}, // clipped by bounds
		{X: 0, Y: 0, W: 200, H: 100},
	}

	for _, sel := range selections {
		regions := DimRegions(bounds, sel)
		for y := 0.5; y < bounds.H; y += 5 {
			for x := 0.5; x < bounds.W; x += 5 {
				p := Point{X: x, Y: y}
				hits := 0
				for _, r := range regions {
					if r.Contains(p) {
						hits++
					}
				}
				want := Dimmed(bounds, sel, p)
				if want && hits != 1 {
					t.Fatalf("sel %v: point %v covered %d times, want exactly once", sel, p, hits)
				}
				if !want && hits != 0 {
					t.Fatalf("sel %v: point %v inside selection but dimmed", sel, p)
				}
			}
		}
	}
}
