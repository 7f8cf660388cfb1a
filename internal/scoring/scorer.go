package scoring

import (
	"math"
	"strings"
)

// Rule is a named keyword matcher contributing its weight to the score when
// any keyword occurs in the item text.
type Rule struct {
	Name     string
	Weight   float64
	Keywords []string
}

// Result carries the bounded score and the names of matched signals.
type Result struct {
	Score   int
	Signals []string
}

// Scorer computes scores from a fixed rule set. Scoring is a pure function
// of the item text: identical input always yields identical score and
// signal set.
type Scorer struct {
	rules       []Rule
	totalWeight float64
}

// New builds a scorer from the given rules; nil or empty falls back to the
// default rule set.
func New(rules []Rule) *Scorer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	var total float64
	for _, r := range rules {
		total += r.Weight
	}

	return &Scorer{rules: rules, totalWeight: total}
}

// Score matches title and body against every rule and normalizes the
// matched weight sum to the 0-100 scale.
func (s *Scorer) Score(title, body string) Result {
	text := strings.ToLower(title + " " + body)

	var matchedWeight float64
	signals := []string{}

	for _, rule := range s.rules {
		if containsAny(text, rule.Keywords) {
			matchedWeight += rule.Weight
			signals = append(signals, rule.Name)
		}
	}

	score := 0
	if s.totalWeight > 0 {
		score = int(math.Round(matchedWeight / s.totalWeight * 100))
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return Result{Score: score, Signals: signals}
}

// DefaultRules returns the built-in signal taxonomy.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "problem_mention",
			Weight: 15,
			Keywords: []string{
				"problem", "issue", "frustrated", "annoying", "hate",
				"wish", "need", "struggling",
			},
		},
		{
			Name:   "solution_seeking",
			Weight: 20,
			Keywords: []string{
				"how do i", "how to", "best way", "recommend",
				"alternative", "looking for", "need help", "any suggestions",
			},
		},
		{
			Name:   "show_project",
			Weight: 10,
			Keywords: []string{
				"show hn", "i built", "i made", "my project",
				"side project", "launching", "just launched",
			},
		},
		{
			Name:   "technical",
			Weight: 10,
			Keywords: []string{
				"api", "sdk", "library", "framework", "cli",
				"developer", "devtool", "open source",
			},
		},
		{
			Name:   "business_opportunity",
			Weight: 15,
			Keywords: []string{
				"saas", "startup", "revenue", "customers",
				"subscription", "pricing", "monetize",
			},
		},
		{
			Name:   "willing_to_pay",
			Weight: 20,
			Keywords: []string{
				"would pay for", "willing to pay", "take my money", "happy to pay",
				"shut up and take my money",
			},
		},
		{
			Name:   "indie_focus",
			Weight: 10,
			Keywords: []string{
				"indie", "solo", "bootstrapped", "self-funded",
				"maker", "indiehacker", "solopreneur",
			},
		},
		{
			Name:   "hiring_demand",
			Weight: 10,
			Keywords: []string{
				"hiring", "we are looking", "contract role",
				"freelance", "remote position",
			},
		},
	}
}

// containsAny checks whether the lowercased text contains any keyword.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
