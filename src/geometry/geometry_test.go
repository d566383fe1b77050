package geometry

import (
	"errors"
	"image"
	"testing"
)

func TestSelectionRectMissingPoint(t *testing.T) {
	p := Point{X: 1, Y: 2}
	if _, ok := SelectionRect(nil, &p); ok {
		t.Fatal("expected no rect without a start point")
	}
	if _, ok := SelectionRect(&p, nil); ok {
		t.Fatal("expected no rect without a current point")
	}
}

func TestSelectionRectOrderIndependent(t *testing.T) {
	pairs := []struct{ a, b Point }{
		{Point{10, 10}, Point{110, 60}},
		{Point{110, 60}, Point{10, 10}},
		{Point{-5, 40}, Point{20, -3}},
		{Point{7, 7}, Point{7, 7}},
		{Point{0.5, 300}, Point{200.25, 0}},
	}

	for _, tt := range pairs {
		ab, ok := SelectionRect(&tt.a, &tt.b)
		if !ok {
			t.Fatalf("SelectionRect(%v, %v) reported no rect", tt.a, tt.b)
		}
		ba, _ := SelectionRect(&tt.b, &tt.a)
		if ab != ba {
			t.Errorf("SelectionRect not symmetric: %v vs %v", ab, ba)
		}
		if ab.W < 0 || ab.H < 0 {
			t.Errorf("negative size for %v/%v: %v", tt.a, tt.b, ab)
		}
	}
}

func TestCheckSelection(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
		ok   bool
	}{
		{"large", Rect{W: 100, H: 50}, true},
		{"exact minimum", Rect{W: 5, H: 5}, true},
		{"narrow", Rect{W: 4.9, H: 50}, false},
		{"short", Rect{W: 50, H: 4}, false},
		{"empty", Rect{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSelection(tt.rect)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrSelectionTooSmall) {
				t.Fatalf("expected ErrSelectionTooSmall, got %v", err)
			}
		})
	}
}

func TestToScreenPixelSpaceFlipsVertically(t *testing.T) {
	start := Point{X: 10, Y: 10}
	end := Point{X: 110, Y: 60}
	sel, _ := SelectionRect(&start, &end)

	got, err := ToScreenPixelSpace(sel, Point{}, Rect{W: 1440, H: 900})
	if err != nil {
		t.Fatalf("ToScreenPixelSpace: %v", err)
	}
	want := Rect{X: 10, Y: 840, W: 100, H: 50}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestToScreenPixelSpaceWindowOffset(t *testing.T) {
	sel := Rect{X: 0, Y: 0, W: 20, H: 20}
	got, err := ToScreenPixelSpace(sel, Point{X: 100, Y: 30}, Rect{W: 800, H: 600})
	if err != nil {
		t.Fatalf("ToScreenPixelSpace: %v", err)
	}
	// window bottom sits 30pt above the screen bottom
	want := Rect{X: 100, Y: 550, W: 20, H: 20}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestToScreenPixelSpaceRejectsSmall(t *testing.T) {
	_, err := ToScreenPixelSpace(Rect{W: 3, H: 40}, Point{}, Rect{W: 800, H: 600})
	if !errors.Is(err, ErrSelectionTooSmall) {
		t.Fatalf("expected ErrSelectionTooSmall, got %v", err)
	}
}

func TestToBackingPixels(t *testing.T) {
	tests := []struct {
		rect  Rect
		scale float64
		want  image.Rectangle
	}{
		{Rect{X: 10, Y: 840, W: 100, H: 50}, 1, image.Rect(10, 840, 110, 890)},
		{Rect{X: 10, Y: 840, W: 100, H: 50}, 2, image.Rect(20, 1680, 220, 1780)},
		{Rect{X: 0.4, Y: 0.4, W: 10, H: 10}, 1.5, image.Rect(0, 0, 16, 16)},
		{Rect{X: 1, Y: 1, W: 1, H: 1}, 0, image.Rect(1, 1, 2, 2)},
	}

	for _, tt := range tests {
		if got := ToBackingPixels(tt.rect, tt.scale); got != tt.want {
			t.Errorf("ToBackingPixels(%v, %v) = %v, want %v", tt.rect, tt.scale, got, tt.want)
		}
	}
}

func TestFlipYRoundTrip(t *testing.T) {
	p := Point{X: 3, Y: 40}
	if got := FlipY(FlipY(p, 900), 900); got != p {
		t.Fatalf("FlipY not an involution: %v", got)
	}
	r := Rect{X: 10, Y: 10, W: 100, H: 50}
	if got := FlipRectY(r, 900); got != (Rect{X: 10, Y: 840, W: 100, H: 50}) {
		t.Fatalf("FlipRectY = %v", got)
	}
}
