package formfill

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// Patterns is the declarative matching table. Supporting a new template
// layout means editing this data, not the filler.
type Patterns struct {
	Version   string          `yaml:"version"`
	Fields    []FieldPattern  `yaml:"fields"`
	Attendees AttendeeTables  `yaml:"attendees"`
	Date      DatePatterns    `yaml:"date"`
	Signature SignatureTables `yaml:"signature"`
}

// FieldPattern lists the normalized fragments tried for one logical key, in order.
type FieldPattern struct {
	Key       string   `yaml:"key"`
	Fragments []string `yaml:"fragments"`
}

// AttendeeTables holds literal name patterns for the repeated attendee rows.
type AttendeeTables struct {
	Limit int           `yaml:"limit"`
	ASU   ASUPatterns   `yaml:"asu"`
	Other OtherPatterns `yaml:"other"`
}

type ASUPatterns struct {
	Name       []string `yaml:"name"`
	Department []string `yaml:"department"`
	Title      []string `yaml:"title"`
}

type OtherPatterns struct {
	Name        []string `yaml:"name"`
	Affiliation []string `yaml:"affiliation"`
	Title       []string `yaml:"title"`
}

// DatePatterns drives the certification-date search.
type DatePatterns struct {
	Candidates []string  `yaml:"candidates"`
	Keyword    string    `yaml:"keyword"`
	Nearby     []string  `yaml:"nearby"`
	Exclude    []string  `yaml:"exclude"`
	Anchors    []string  `yaml:"anchors"`
	Placement  Placement `yaml:"placement"`
}

// SignatureTables drives the text-signature search.
type SignatureTables struct {
	Keywords  []string  `yaml:"keywords"`
	Anchors   []string  `yaml:"anchors"`
	Placement Placement `yaml:"placement"`
}

// Placement describes where and how positional text is drawn.
type Placement struct {
	Font     Font    `yaml:"font"`
	Size     float64 `yaml:"size"`
	Offset   float64 `yaml:"offset"`
	DefaultX float64 `yaml:"defaultX"`
	DefaultY float64 `yaml:"defaultY"`
}

// DefaultPatterns returns the built-in table.
func DefaultPatterns() *Patterns {
	p, err := ParsePatterns(defaultPatterns)
	if err != nil {
		panic(fmt.Sprintf("formfill: embedded patterns: %v", err))
	}
	return p
}

// LoadPatternsFile reads a YAML pattern table from path.
func LoadPatternsFile(path string) (*Patterns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns file %s: %w", path, err)
	}
	return ParsePatterns(data)
}

// ParsePatterns parses and validates a YAML pattern table.
func ParsePatterns(data []byte) (*Patterns, error) {
	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse patterns YAML: %w", err)
	}
	if p.Version == "" {
		p.Version = "1"
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the table for entries the filler cannot use.
func (p *Patterns) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(p.Fields))
	for i, f := range p.Fields {
		if f.Key == "" {
			errs = append(errs, fmt.Errorf("fields[%d]: missing key", i))
			continue
		}
		if seen[f.Key] {
			errs = append(errs, fmt.Errorf("fields[%d]: duplicate key %q", i, f.Key))
		}
		seen[f.Key] = true
		if len(f.Fragments) == 0 {
			errs = append(errs, fmt.Errorf("fields[%d] %s: no fragments", i, f.Key))
		}
	}

	if p.Attendees.Limit < 1 || p.Attendees.Limit > 5 {
		errs = append(errs, fmt.Errorf("attendees.limit must be between 1 and 5, got %d", p.Attendees.Limit))
	}
	groups := map[string][]string{
		"asu.name":          p.Attendees.ASU.Name,
		"asu.department":    p.Attendees.ASU.Department,
		"asu.title":         p.Attendees.ASU.Title,
		"other.name":        p.Attendees.Other.Name,
		"other.affiliation": p.Attendees.Other.Affiliation,
		"other.title":       p.Attendees.Other.Title,
	}
	for name, pats := range groups {
		if len(pats) == 0 {
			errs = append(errs, fmt.Errorf("attendees.%s: no patterns", name))
		}
		for _, pat := range pats {
			if !strings.Contains(pat, "{n}") {
				errs = append(errs, fmt.Errorf("attendees.%s: pattern %q has no {n} placeholder", name, pat))
			}
		}
	}

	if len(p.Date.Candidates) == 0 {
		errs = append(errs, errors.New("date.candidates: empty"))
	}
	if p.Date.Keyword == "" {
		errs = append(errs, errors.New("date.keyword: empty"))
	}
	if len(p.Signature.Keywords) == 0 {
		errs = append(errs, errors.New("signature.keywords: empty"))
	}
	for name, pl := range map[string]Placement{"date": p.Date.Placement, "signature": p.Signature.Placement} {
		if pl.Font == "" {
			errs = append(errs, fmt.Errorf("%s.placement.font: empty", name))
		}
		if pl.Size <= 0 {
			errs = append(errs, fmt.Errorf("%s.placement.size must be positive", name))
		}
	}
	return errors.Join(errs...)
}

// Fragments returns the fragment list for a logical key.
func (p *Patterns) Fragments(key string) []string {
	for _, f := range p.Fields {
		if f.Key == key {
			return f.Fragments
		}
	}
	return nil
}

// expand substitutes the 1-based row number into each pattern.
func expand(patterns []string, row int) []string {
	n := strconv.Itoa(row)
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = strings.ReplaceAll(p, "{n}", n)
	}
	return out
}
