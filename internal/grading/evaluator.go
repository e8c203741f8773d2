package grading

import (
	"math"
	"strconv"
	"strings"
)

// Question is a minimal view of a question needed for grading.
// Keep this in sync with whatever fields your store uses.
type Question struct {
	ID        string
	Type      string
	Points    float64
	AnswerKey string
}

// Verdict is the outcome of grading a single submitted answer. Scoring is
// all-or-nothing: Points is either the question's full points or zero.
type Verdict struct {
	Correct bool
	Points  float64
	Anomaly string // non-empty when the input could not be graded normally
}

// Rule grades a single question type.
type Rule interface {
	Evaluate(q Question, submitted string) Verdict
}

// Evaluator routes by question type to the correct Rule. Unknown types grade
// as incorrect with an anomaly note; callers log, never reject.
type Evaluator struct {
	rules map[string]Rule
}

type Option func(*config)

type config struct {
	NumericEpsilon float64 // absolute tolerance for numeric answers
}

func WithNumericEpsilon(eps float64) Option {
	return func(c *config) { c.NumericEpsilon = eps }
}

// NewEvaluator installs built-in rules.
func NewEvaluator(opts ...Option) *Evaluator {
	cfg := &config{NumericEpsilon: 0.0001}
	for _, o := range opts {
		o(cfg)
	}
	return &Evaluator{
		rules: map[string]Rule{
			"mcq":        choiceRule{},
			"true_false": choiceRule{},
			"short_text": textRule{},
			"long_text":  textRule{},
			"numeric":    numericRule{epsilon: cfg.NumericEpsilon},
		},
	}
}

func (e *Evaluator) Evaluate(q Question, submitted string) Verdict {
	r, ok := e.rules[q.Type]
	if !ok {
		return Verdict{Anomaly: "no grading rule for question type " + strconv.Quote(q.Type)}
	}
	return r.Evaluate(q, submitted)
}

// --- Rules ---

// choiceRule handles mcq and true_false: case-insensitive exact equality.
type choiceRule struct{}

func (choiceRule) Evaluate(q Question, submitted string) Verdict {
	if strings.EqualFold(submitted, q.AnswerKey) {
		return Verdict{Correct: true, Points: q.Points}
	}
	return Verdict{}
}

// textRule handles short_text and long_text: outer whitespace trimmed, then
// case-insensitive equality. No internal normalization, no fuzzy matching.
type textRule struct{}

func (textRule) Evaluate(q Question, submitted string) Verdict {
	if strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(q.AnswerKey)) {
		return Verdict{Correct: true, Points: q.Points}
	}
	return Verdict{}
}

// numericRule: both sides must parse as floats and agree within epsilon.
type numericRule struct{ epsilon float64 }

func (r numericRule) Evaluate(q Question, submitted string) Verdict {
	sv, sOK := parseFloatLoose(submitted)
	kv, kOK := parseFloatLoose(q.AnswerKey)
	if !sOK || !kOK {
		return Verdict{}
	}
	if math.Abs(sv-kv) < r.epsilon {
		return Verdict{Correct: true, Points: q.Points}
	}
	return Verdict{}
}

func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		if v, err := strconv.ParseFloat(sp[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
