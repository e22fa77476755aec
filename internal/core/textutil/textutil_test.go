package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	testCases := []struct {
		name         string
		input        string
		max          int
		wordBoundary bool
		want         string
		wantCut      bool
	}{
		{"UnderLimit", "hello", 10, false, "hello", false},
		{"ExactLimit", "hello", 5, false, "hello", false},
		{"HardCut", "hello world this is long", 10, false, "hello worl", true},
		{"WordBoundary", "hello world this is long", 10, true, "hello", true},
		{"ZeroMax", "hello", 0, false, "", true},
		{"EmptyInput", "", 10, true, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, cut := Truncate(tc.input, tc.max, tc.wordBoundary)
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
			if cut != tc.wantCut {
				t.Errorf("cut = %v, want %v", cut, tc.wantCut)
			}
			if len(got) > tc.max {
				t.Errorf("result length %d exceeds max %d", len(got), tc.max)
			}
		})
	}
}

func TestTruncateNeverSplitsRune(t *testing.T) {
	// Each rune is 3 bytes; cutting at 10 falls mid-rune.
	input := strings.Repeat("日本語", 4)
	got, cut := Truncate(input, 10, false)
	if !cut {
		t.Fatal("expected truncation")
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", got)
	}
	if len(got) > 10 {
		t.Fatalf("result length %d exceeds max", len(got))
	}
}

func TestTruncateWordBoundaryGivesUpFarBack(t *testing.T) {
	// The only whitespace is more than 50 bytes before the cut point, so
	// the boundary search gives up and cuts mid-word.
	input := "a " + strings.Repeat("x", 200)
	got, cut := Truncate(input, 100, true)
	if !cut {
		t.Fatal("expected truncation")
	}
	if len(got) != 100 {
		t.Fatalf("expected hard cut at 100 bytes, got %d", len(got))
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	got := NormalizeWhitespace("  Hello\t\tworld \n\n test  ")
	want := "Hello world test"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEnsureUTF8(t *testing.T) {
	invalid := string([]byte{'o', 'k', 0xff, 0xfe})
	got := EnsureUTF8(invalid)
	if !utf8.ValidString(got) {
		t.Fatalf("result still invalid: %q", got)
	}
	if EnsureUTF8("plain") != "plain" {
		t.Error("valid input should pass through unchanged")
	}
}
