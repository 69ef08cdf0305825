package scanner

import "testing"

func TestKeywordsForKnownSubcategory(t *testing.T) {
	keywords := KeywordsFor("headphones")
	if len(keywords) == 0 {
		t.Fatal("expected curated keywords for headphones")
	}
	if len(keywords) > maxKeywordsPerSubcategory {
		t.Errorf("got %d keywords, cap is %d", len(keywords), maxKeywordsPerSubcategory)
	}
}

func TestKeywordsForCaseInsensitive(t *testing.T) {
	a := KeywordsFor("Pokemon Cards")
	b := KeywordsFor("  pokemon cards ")
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("case variants differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("keyword %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestKeywordsForUnknownFallsBack(t *testing.T) {
	keywords := KeywordsFor("Obscure Widgets")
	if len(keywords) != 1 || keywords[0] != "obscure widgets" {
		t.Errorf("got %v, want [obscure widgets]", keywords)
	}
}

func TestKeywordsForReturnsCopy(t *testing.T) {
	a := KeywordsFor("consoles")
	a[0] = "mutated"
	b := KeywordsFor("consoles")
	if b[0] == "mutated" {
		t.Error("KeywordsFor must not expose the shared backing slice")
	}
}

func TestKeywordCapsRespectedForAll(t *testing.T) {
	for _, sub := range KnownSubcategories() {
		if n := len(KeywordsFor(sub)); n == 0 || n > maxKeywordsPerSubcategory {
			t.Errorf("%s: %d keywords outside (0, %d]", sub, n, maxKeywordsPerSubcategory)
		}
	}
}
