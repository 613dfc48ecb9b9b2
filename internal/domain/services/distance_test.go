package services

import "testing"

func TestLevenshteinBasics(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"paypal.com", "paypa1.com", 1},
		{"google", "goggle", 1},
		{"flaw", "lawn", 2},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLevenshteinSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"paypal.com", "paypa1.com"},
		{"kitten", "sitting"},
		{"", "abc"},
		{"short", "averylongstring"},
	}
	for _, p := range pairs {
		if levenshtein(p[0], p[1]) != levenshtein(p[1], p[0]) {
			t.Errorf("levenshtein not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestLevenshteinZeroIffEqual(t *testing.T) {
	if levenshtein("same", "same") != 0 {
		t.Error("distance between equal strings must be 0")
	}
	if levenshtein("same", "Same") == 0 {
		t.Error("distance between different strings must be nonzero")
	}
}

func TestLevenshteinTriangleInequality(t *testing.T) {
	words := []string{"", "a", "paypal", "paypa1", "payp4l-login", "amazon", "amaz0n.com"}
	for _, a := range words {
		for _, b := range words {
			for _, c := range words {
				ab := levenshtein(a, b)
				bc := levenshtein(b, c)
				ac := levenshtein(a, c)
				if ac > ab+bc {
					t.Errorf("triangle inequality violated: d(%q,%q)=%d > d(%q,%q)+d(%q,%q)=%d",
						a, c, ac, a, b, b, c, ab+bc)
				}
			}
		}
	}
}

func TestIsTyposquatting(t *testing.T) {
	tests := []struct {
		candidate, official string
		want                bool
	}{
		{"paypal.com", "paypal.com", false},      // equal
		{"paypa1.com", "paypal.com", true},       // distance 1
		{"paypa1", "paypal", true},               // token form
		{"x.com", "paypal.com", false},           // distance > 3
		{"pp.co", "paypal.com", false},           // length ratio < 0.5
		{"amaz0n.com", "amazon.com", true},       // digit swap
		{"goggle.com", "google.com", true},       // transposition-ish
		{"completely.org", "paypal.com", false},  // unrelated
	}
	for _, tt := range tests {
		if got := isTyposquatting(tt.candidate, tt.official); got != tt.want {
			t.Errorf("isTyposquatting(%q, %q) = %v, want %v", tt.candidate, tt.official, got, tt.want)
		}
	}
}
