package services

import (
	"math"
	"testing"
)

func TestSimilarityIdenticalTitles(t *testing.T) {
	e := NewSimilarityEngine()
	if got := e.Similarity("apple airpods pro 2nd gen", "apple airpods pro 2nd gen"); got != 1.0 {
		t.Errorf("identical titles: got %.4f, want 1.0", got)
	}
}

func TestSimilarityEmptyInput(t *testing.T) {
	e := NewSimilarityEngine()
	if got := e.Similarity("", "airpods pro"); got != 0 {
		t.Errorf("empty left: got %.4f, want 0", got)
	}
	if got := e.Similarity("airpods pro", ""); got != 0 {
		t.Errorf("empty right: got %.4f, want 0", got)
	}
	if got := e.Similarity("", ""); got != 0 {
		t.Errorf("both empty: got %.4f, want 0", got)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	e := NewSimilarityEngine()

	pairs := [][2]string{
		{"apple airpods pro 2nd gen", "airpods pro 2"},
		{"sony wh 1000xm4 headphones", "sony wireless headphones black"},
		{"nintendo switch oled console", "vintage levis 501 denim jeans"},
	}

	for _, p := range pairs {
		ab := e.Similarity(p[0], p[1])
		ba := e.Similarity(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %.6f but reversed = %.6f", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilaritySameItemAcrossMarketplaces(t *testing.T) {
	e := NewSimilarityEngine()

	// Normalized forms of the same product as two marketplaces title it.
	got := e.Similarity("apple airpods pro 2nd gen", "airpods pro 2")
	if got < 0.7 {
		t.Errorf("same item scored %.4f, want >= 0.7", got)
	}
	if got > 1.0 {
		t.Errorf("score %.4f exceeds 1.0", got)
	}
}

func TestSimilarityContainment(t *testing.T) {
	e := NewSimilarityEngine()

	got := e.Similarity("airpods pro", "apple airpods pro max")
	want := 0.8 + 0.2*(11.0/21.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("containment: got %.6f, want %.6f", got, want)
	}
}

func TestSimilaritySharedModelIdentifier(t *testing.T) {
	e := NewSimilarityEngine()

	got := e.Similarity("sony wh 1000xm4 noise cancelling headphones", "1000xm4 wireless cans black")
	if got != 0.95 {
		t.Errorf("shared identifier: got %.4f, want 0.95", got)
	}
}

func TestSimilarityDissimilarTitles(t *testing.T) {
	e := NewSimilarityEngine()

	got := e.Similarity("nintendo switch oled console", "vintage levis 501 denim jeans")
	if got >= 0.7 {
		t.Errorf("unrelated items scored %.4f, want < 0.7", got)
	}
}

func TestSimilarityBounded(t *testing.T) {
	e := NewSimilarityEngine()

	pairs := [][2]string{
		{"a", "a"},
		{"apple airpods pro 2nd gen", "airpods pro 2"},
		{"rtx4080 nvidia founders", "rtx4080 gpu graphics card"},
		{"x", "completely different thing entirely"},
	}

	for _, p := range pairs {
		got := e.Similarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Similarity(%q, %q) = %.6f out of [0,1]", p[0], p[1], got)
		}
	}
}
