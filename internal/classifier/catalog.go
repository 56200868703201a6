package classifier

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pattern is a single compiled blocklist entry.
type Pattern struct {
	Category string
	Lang     string
	Term     string
	re       *regexp.Regexp
}

// CategorySpec is one catalog entry before compilation. Terms are literal
// words or phrases; a trailing "*" marks a stem that also matches any
// suffix (plural and case endings).
type CategorySpec struct {
	Name  string   `yaml:"name"`
	Lang  string   `yaml:"lang"`
	Tier  string   `yaml:"tier"`
	Terms []string `yaml:"terms"`
}

// CatalogSpec is the serializable form of the pattern catalog.
type CatalogSpec struct {
	Version    int            `yaml:"version"`
	Categories []CategorySpec `yaml:"categories"`
}

// Catalog holds the compiled pattern tiers. The broad tier is built as
// narrow plus the broad-only extras, which keeps the superset invariant
// true by construction.
type Catalog struct {
	narrow []Pattern
	broad  []Pattern
}

// Patterns returns the compiled patterns for the given tier.
func (c *Catalog) Patterns(tier Tier) []Pattern {
	if tier == TierNarrow {
		return c.narrow
	}
	return c.broad
}

// Compile builds a catalog from a spec. It fails on unknown tiers and on
// terms that do not compile, so a bad override file is rejected at startup
// rather than silently weakening the gate.
func Compile(spec CatalogSpec) (*Catalog, error) {
	catalog := &Catalog{}

	for _, cat := range spec.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("catalog category without a name")
		}
		tier := Tier(cat.Tier)
		if tier != TierNarrow && tier != TierBroad {
			return nil, fmt.Errorf("category %s: unknown tier %q", cat.Name, cat.Tier)
		}
		for _, term := range cat.Terms {
			p, err := compileTerm(cat.Name, cat.Lang, term)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat.Name, err)
			}
			if tier == TierNarrow {
				catalog.narrow = append(catalog.narrow, p)
			}
			catalog.broad = append(catalog.broad, p)
		}
	}

	if len(catalog.narrow) == 0 {
		return nil, fmt.Errorf("catalog has no narrow-tier patterns")
	}
	return catalog, nil
}

// compileTerm turns one literal term into an anchored regular expression.
// RE2's \b only understands ASCII word characters, so boundaries are
// expressed as Unicode letter/digit classes to work for Cyrillic terms too.
func compileTerm(category, lang, term string) (Pattern, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return Pattern{}, fmt.Errorf("empty term")
	}

	stem := strings.HasSuffix(term, "*")
	literal := strings.TrimSuffix(term, "*")

	body := regexp.QuoteMeta(literal)
	// Phrases match as contiguous words separated by any whitespace run.
	body = strings.ReplaceAll(body, " ", `\s+`)

	expr := `(?:^|[^\p{L}\d])` + body
	if !stem {
		expr += `(?:[^\p{L}\d]|$)`
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("term %q: %w", term, err)
	}
	return Pattern{
		Category: category,
		Lang:     lang,
		Term:     literal,
		re:       re,
	}, nil
}

// LoadCatalog reads a YAML catalog override from path and compiles it.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec CatalogSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse pattern catalog: %w", err)
	}
	return Compile(spec)
}

// DefaultCatalog compiles the built-in pattern set. The defaults are fixed
// data, so a compile failure here is a programming error.
func DefaultCatalog() *Catalog {
	catalog, err := Compile(defaultSpec)
	if err != nil {
		panic(fmt.Sprintf("default pattern catalog failed to compile: %v", err))
	}
	return catalog
}
