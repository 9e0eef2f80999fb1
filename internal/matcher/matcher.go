package matcher

import (
	"fmt"
	"strings"
)

// Policy selects how strictly an image name must agree with a target name.
type Policy string

const (
	// PolicyLooseAny matches when any non-excluded image token occurs in the
	// target.
	PolicyLooseAny Policy = "loose-any"
	// PolicyLooseHalf matches when at least half of the non-excluded image
	// tokens occur in the target.
	PolicyLooseHalf Policy = "loose-half"
	// PolicyExact matches when both names are equal after dropping every
	// non-alphanumeric character.
	PolicyExact Policy = "exact"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyLooseAny, PolicyLooseHalf, PolicyExact:
		return p, nil
	}
	return "", fmt.Errorf("unknown match policy %q (want loose-any, loose-half or exact)", s)
}

// DefaultExclusions are generic words that would otherwise dominate loose
// matches.
var DefaultExclusions = []string{"glass", "mm", "supply", "customer", "and", "the", "with"}

// Matcher applies one Policy.
type Matcher struct {
	policy     Policy
	exclusions map[string]struct{}
}

// New builds a matcher. Exclusions are ignored by the exact policy.
func New(policy Policy, exclusions []string) *Matcher {
	m := &Matcher{
		policy:     policy,
		exclusions: make(map[string]struct{}, len(exclusions)),
	}
	for _, w := range exclusions {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			m.exclusions[w] = struct{}{}
		}
	}
	return m
}

// Policy returns the policy the matcher applies.
func (m *Matcher) Policy() Policy {
	return m.policy
}

// IsMatch reports whether an image with the given file stem matches target.
func (m *Matcher) IsMatch(target, stem string) bool {
	if m.policy == PolicyExact {
		key := ExactKey(target)
		return key != "" && key == ExactKey(stem)
	}

	normTarget := Normalize(target)
	if normTarget == "" {
		return false
	}
	tokens := m.tokens(NormalizeStem(stem))
	if len(tokens) == 0 {
		return false
	}

	hits := 0
	for _, tok := range tokens {
		if strings.Contains(normTarget, tok) {
			if m.policy == PolicyLooseAny {
				return true
			}
			hits++
		}
	}
	return m.policy == PolicyLooseHalf && hits*2 >= len(tokens)
}

func (m *Matcher) tokens(normalized string) []string {
	var out []string
	for _, tok := range strings.Fields(normalized) {
		if _, skip := m.exclusions[tok]; skip {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Best returns the matching candidate whose stem length is closest to the
// target length. On equal distance the shorter stem wins, then the earliest
// candidate in pool order. Candidates stay in the pool after a match, so two
// targets may receive the same image.
func (m *Matcher) Best(target string, pool []Candidate) (Candidate, bool) {
	best := -1
	bestDiff := 0
	for i, c := range pool {
		if !m.IsMatch(target, c.Stem) {
			continue
		}
		diff := abs(len(c.Stem) - len(target))
		if best < 0 || diff < bestDiff || (diff == bestDiff && len(c.Stem) < len(pool[best].Stem)) {
			best, bestDiff = i, diff
		}
	}
	if best < 0 {
		return Candidate{}, false
	}
	return pool[best], true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Result pairs a target name with the image chosen for it.
type Result struct {
	Target  string
	Image   Candidate
	Matched bool
}

// MatchAll runs Best for every target in order.
func (m *Matcher) MatchAll(targets []string, pool []Candidate) []Result {
	results := make([]Result, len(targets))
	for i, target := range targets {
		c, ok := m.Best(target, pool)
		results[i] = Result{Target: target, Image: c, Matched: ok}
	}
	return results
}
