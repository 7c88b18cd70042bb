// Package textmatch scores free-text queries against network platforms.
// The scoring is deliberately conservative: beyond whole-field and token
// comparisons there is no fuzzy matching, which avoids false positives on
// short French place names.
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"combiroute.fr/internal/network"
)

// Match tiers, in descending priority.
const (
	ScoreExactCity    = 100
	ScoreExactName    = 95
	ScorePrefixCity   = 80
	ScorePrefixName   = 75
	ScoreSubstrCity   = 60
	ScoreSubstrName   = 55
	ScoreDepartment   = 40
	ScoreTokenExact   = 30
	ScoreTokenPrefix  = 15
	StrongScoreFloor  = 40
	minTokenLen       = 2
	minScoredTokenLen = 3
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize strips diacritics, lowercases and trims the given text.
// "Vénissieux " becomes "venissieux".
func Normalize(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		// Transform only fails on malformed input; fall back to the raw text
		// rather than dropping the query.
		folded = text
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Tokenize normalizes the text and splits it into tokens on whitespace,
// punctuation and hyphens. Tokens shorter than 2 characters are discarded;
// they are almost always articles ("le", "la" survive, "l" and "d" do not).
func Tokenize(text string) []string {
	normalized := Normalize(text)
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// MatchScore scores how well the query matches the platform, in descending
// priority: exact city equality, exact platform-name equality, city/name
// prefix, city/name substring, accumulated token overlap, then a department
// containment fallback. A zero score means no match at all.
func MatchScore(query string, p *network.Platform) int {
	q := Normalize(query)
	if q == "" {
		return 0
	}

	city := Normalize(p.City)
	name := Normalize(p.ID)

	switch {
	case q == city:
		return ScoreExactCity
	case q == name:
		return ScoreExactName
	case city != "" && strings.HasPrefix(city, q):
		return ScorePrefixCity
	case name != "" && strings.HasPrefix(name, q):
		return ScorePrefixName
	case city != "" && strings.Contains(city, q):
		return ScoreSubstrCity
	case name != "" && strings.Contains(name, q):
		return ScoreSubstrName
	}

	score := tokenOverlapScore(Tokenize(query), append(Tokenize(p.City), Tokenize(p.ID)...))
	if score == 0 && strings.Contains(Normalize(p.Department), q) {
		return ScoreDepartment
	}
	return score
}

// tokenOverlapScore accumulates per-token credit between query and platform
// tokens. Only tokens of 3+ characters participate. Each query token earns
// credit for its best counterpart: full equality outranks a one-sided prefix.
func tokenOverlapScore(queryTokens, platformTokens []string) int {
	score := 0
	for _, qt := range queryTokens {
		if len(qt) < minScoredTokenLen {
			continue
		}
		best := 0
		for _, pt := range platformTokens {
			if len(pt) < minScoredTokenLen {
				continue
			}
			switch {
			case qt == pt:
				best = ScoreTokenExact
			case best < ScoreTokenPrefix && (strings.HasPrefix(pt, qt) || strings.HasPrefix(qt, pt)):
				best = ScoreTokenPrefix
			}
			if best == ScoreTokenExact {
				break
			}
		}
		score += best
	}
	return score
}

// IsStrong reports whether the score is good enough to short-circuit the
// geocoding fallback.
func IsStrong(score int) bool {
	return score >= StrongScoreFloor
}
