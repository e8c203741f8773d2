package grading

import "testing"

func TestLetterGrade(t *testing.T) {
	cases := []struct {
		score, total float64
		want         string
	}{
		{90, 100, "A+"},
		{89, 100, "A"},
		{80, 100, "A"},
		{79, 100, "B"},
		{70, 100, "B"},
		{60, 100, "C"},
		{50, 100, "D"},
		{49, 100, "F"},
		{0, 100, "F"},
		{10, 0, "F"}, // zero total never divides
	}
	for _, tc := range cases {
		if got := LetterGrade(tc.score, tc.total); got != tc.want {
			t.Errorf("LetterGrade(%v, %v) = %q, want %q", tc.score, tc.total, got, tc.want)
		}
	}
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name     string
		score    float64
		total    float64
		answered int
		want     string
	}{
		{"no score no answers is absent", 0, 100, 0, StatusAbsent},
		{"all wrong but attempted fails", 0, 100, 5, StatusFailed},
		{"exactly at threshold passes", 40, 100, 10, StatusPassed},
		{"just under threshold fails", 39, 100, 10, StatusFailed},
		{"full marks passes", 100, 100, 10, StatusPassed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(tc.score, tc.total, tc.answered, DefaultPassThreshold); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
