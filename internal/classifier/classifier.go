package classifier

import (
	"strings"
)

// Tier selects how aggressive the blocklist is. The broad tier is always a
// superset of the narrow tier, so switching tiers can only add matches.
type Tier string

const (
	TierNarrow Tier = "narrow"
	TierBroad  Tier = "broad"
)

// Verdict is the outcome of classifying a single utterance.
// Category is only set when Blocked is true.
type Verdict struct {
	Blocked  bool   `json:"blocked"`
	Category string `json:"category,omitempty"`
	Term     string `json:"term,omitempty"`
}

// Classifier tests utterances against a compiled pattern catalog.
// It is pure and safe for unbounded concurrent use: the catalog is
// compiled once and never mutated afterwards.
type Classifier struct {
	catalog *Catalog
	tier    Tier
}

func New(catalog *Catalog, tier Tier) *Classifier {
	if tier != TierNarrow {
		tier = TierBroad
	}
	return &Classifier{
		catalog: catalog,
		tier:    tier,
	}
}

// Classify lowercases the text and returns the first matching pattern's
// verdict. Any match blocks; pattern order carries no priority semantics.
// The empty string is never blocked.
func (c *Classifier) Classify(text string) Verdict {
	if text == "" {
		return Verdict{}
	}

	lowered := strings.ToLower(text)
	for _, p := range c.catalog.Patterns(c.tier) {
		if p.re.MatchString(lowered) {
			return Verdict{
				Blocked:  true,
				Category: p.Category,
				Term:     p.Term,
			}
		}
	}
	return Verdict{}
}

// Blocked reports whether the text matches any pattern of the classifier's tier.
func (c *Classifier) Blocked(text string) bool {
	return c.Classify(text).Blocked
}

// Tier returns the tier this classifier was built with.
func (c *Classifier) Tier() Tier {
	return c.tier
}
