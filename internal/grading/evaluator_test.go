package grading

import "testing"

func TestEvaluateByType(t *testing.T) {
	ev := NewEvaluator()
	cases := []struct {
		name      string
		typ       string
		key       string
		submitted string
		correct   bool
	}{
		{"mcq exact", "mcq", "B", "B", true},
		{"mcq case-insensitive", "mcq", "b", "B", true},
		{"mcq wrong", "mcq", "B", "C", false},
		{"mcq no trim", "mcq", "B", " B", false},
		{"true_false case-insensitive", "true_false", "true", "True", true},
		{"true_false wrong", "true_false", "true", "false", false},
		{"short_text trimmed", "short_text", "H2O", "  H2O ", true},
		{"short_text case-insensitive", "short_text", "Photosynthesis", "photosynthesis", true},
		{"short_text internal spaces differ", "short_text", "H2O", "H 2 O", false},
		{"long_text trimmed", "long_text", "mitochondria", " mitochondria\n", true},
		{"numeric within epsilon", "numeric", "3", "3.00009", true},
		{"numeric outside epsilon", "numeric", "3", "3.001", false},
		{"numeric unparseable submission", "numeric", "3", "three", false},
		{"numeric unparseable key", "numeric", "n/a", "3", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := Question{Type: tc.typ, Points: 5, AnswerKey: tc.key}
			v := ev.Evaluate(q, tc.submitted)
			if v.Correct != tc.correct {
				t.Fatalf("correct=%v, want %v", v.Correct, tc.correct)
			}
			wantPts := 0.0
			if tc.correct {
				wantPts = 5
			}
			if v.Points != wantPts {
				t.Fatalf("points=%v, want %v", v.Points, wantPts)
			}
			if v.Anomaly != "" {
				t.Fatalf("unexpected anomaly: %q", v.Anomaly)
			}
		})
	}
}

func TestEvaluateUnknownType(t *testing.T) {
	ev := NewEvaluator()
	v := ev.Evaluate(Question{Type: "matching", Points: 5, AnswerKey: "x"}, "x")
	if v.Correct || v.Points != 0 {
		t.Fatalf("unknown type must grade incorrect with zero points, got %+v", v)
	}
	if v.Anomaly == "" {
		t.Fatalf("expected anomaly note for unknown type")
	}
}

func TestEvaluateCustomEpsilon(t *testing.T) {
	ev := NewEvaluator(WithNumericEpsilon(0.01))
	q := Question{Type: "numeric", Points: 2, AnswerKey: "3"}
	if v := ev.Evaluate(q, "3.005"); !v.Correct {
		t.Fatalf("expected 3.005 within 0.01 of 3")
	}
	if v := ev.Evaluate(q, "3.02"); v.Correct {
		t.Fatalf("expected 3.02 outside 0.01 of 3")
	}
}

func TestNoPartialCredit(t *testing.T) {
	ev := NewEvaluator()
	v := ev.Evaluate(Question{Type: "short_text", Points: 4, AnswerKey: "oxygen"}, "oxygn")
	if v.Points != 0 {
		t.Fatalf("near-miss must earn zero, got %v", v.Points)
	}
}
