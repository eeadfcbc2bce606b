// Package classify scores market text against a tiered sports keyword
// taxonomy. League and team names are conclusive on their own; generic sport
// terms only classify when a contextual term co-occurs, since a bare sport
// word could appear in an unrelated headline.
package classify

import (
	"strings"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

// leagueKeywords are league and brand names. A single match suffices.
var leagueKeywords = []string{
	"nfl", "nba", "mlb", "nhl", "mls",
	"premier league", "la liga", "bundesliga", "serie a",
	"formula 1", "f1", "nascar", "ufc",
	"world cup", "super bowl",
}

// teamKeywords are team names. A single match suffices.
var teamKeywords = []string{
	// NFL
	"bills", "dolphins", "patriots", "jets",
	"ravens", "bengals", "browns", "steelers",
	"titans", "colts", "texans", "jaguars",
	"chiefs", "raiders", "chargers", "broncos",
	"cowboys", "eagles", "commanders", "giants",
	"vikings", "packers", "bears", "lions",
	"buccaneers", "saints", "falcons", "panthers",
	"49ers", "seahawks", "rams", "cardinals",
	// NBA
	"celtics", "nets", "knicks", "raptors",
	"bucks", "cavaliers", "hawks", "heat",
	"warriors", "clippers", "suns", "lakers",
	"nuggets", "timberwolves", "thunder", "jazz",
}

// genericKeywords are sport and context words that are too ambiguous to
// classify alone.
var genericKeywords = []string{
	"soccer", "football", "basketball", "baseball",
	"tennis", "hockey", "golf", "boxing", "racing",
	"playoff", "playoffs", "finals", "draft",
	"all-star", "all star",
	"winner", "champion", "roster", "season",
	"coach", "player", "team", "sports",
}

// contextTerms corroborate a generic keyword match.
var contextTerms = []string{
	"match", "game", "score", "win", "championship", "tournament",
}

// Classifier matches text against the keyword tiers. The zero value is not
// usable; construct with New.
type Classifier struct {
	leagues []string
	teams   []string
	generic []string
	context []string
}

// New returns a Classifier over the built-in sports taxonomy.
func New() *Classifier {
	return &Classifier{
		leagues: leagueKeywords,
		teams:   teamKeywords,
		generic: genericKeywords,
		context: contextTerms,
	}
}

// Classify case-folds text (a market's question plus description) and applies
// the tiered matching rule: any league or team keyword classifies
// immediately; a generic keyword classifies only together with at least one
// contextual term.
func (c *Classifier) Classify(text string) domain.Classification {
	folded := strings.ToLower(text)
	tokens := tokenSet(folded)

	var matched []string
	for _, kw := range c.leagues {
		if keywordMatches(folded, tokens, kw) {
			matched = append(matched, kw)
		}
	}
	for _, kw := range c.teams {
		if keywordMatches(folded, tokens, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) > 0 {
		return domain.Classification{Sports: true, Matched: matched}
	}

	for _, kw := range c.generic {
		if keywordMatches(folded, tokens, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return domain.Classification{}
	}

	for _, term := range c.context {
		if _, ok := tokens[term]; ok {
			return domain.Classification{Sports: true, Matched: append(matched, term)}
		}
	}

	// Generic keywords without corroborating context stay unclassified.
	return domain.Classification{}
}

// keywordMatches applies the matching rule for one keyword: multi-word or
// punctuated keywords match as contiguous substrings of the folded text,
// single words must equal a whole token so "golf" does not fire inside
// "golfo".
func keywordMatches(folded string, tokens map[string]struct{}, kw string) bool {
	if strings.ContainsAny(kw, " -") {
		return strings.Contains(folded, kw)
	}
	_, ok := tokens[kw]
	return ok
}

// tokenSet splits folded text into lowercase alphanumeric tokens.
func tokenSet(folded string) map[string]struct{} {
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
