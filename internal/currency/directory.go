package currency

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"currency-bot/internal/model"
)

//go:embed directory.yaml
var embedded []byte

// Group is one titled block of the curated listing.
type Group struct {
	Category string
	Items    []model.Currency
}

// Directory is the read-only set of currencies the bot knows by name.
type Directory struct {
	all    []model.Currency
	byCode map[string]model.Currency
}

// Load parses the embedded directory.
func Load() (*Directory, error) {
	return Parse(embedded)
}

// Parse builds a directory from YAML. Codes must be unique.
func Parse(data []byte) (*Directory, error) {
	var items []model.Currency
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode currency directory: %w", err)
	}
	return New(items)
}

func New(items []model.Currency) (*Directory, error) {
	d := &Directory{
		all:    make([]model.Currency, 0, len(items)),
		byCode: make(map[string]model.Currency, len(items)),
	}
	for _, c := range items {
		c.Code = model.NormalizeCode(c.Code)
		if c.Code == "" {
			return nil, fmt.Errorf("currency directory: entry %q has no code", c.Name)
		}
		if _, dup := d.byCode[c.Code]; dup {
			return nil, fmt.Errorf("currency directory: duplicate code %s", c.Code)
		}
		if c.Category == "" {
			c.Category = model.CategoryOther
		}
		d.byCode[c.Code] = c
		d.all = append(d.all, c)
	}
	sort.Slice(d.all, func(i, j int) bool { return d.all[i].Code < d.all[j].Code })
	return d, nil
}

// All returns every entry sorted by code.
func (d *Directory) All() []model.Currency {
	out := make([]model.Currency, len(d.all))
	copy(out, d.all)
	return out
}

func (d *Directory) Len() int {
	return len(d.all)
}

func (d *Directory) Lookup(code string) (model.Currency, bool) {
	c, ok := d.byCode[model.NormalizeCode(code)]
	return c, ok
}

// Name returns the display name or the code itself for unknown currencies.
func (d *Directory) Name(code string) string {
	if c, ok := d.Lookup(code); ok {
		return c.Name
	}
	return model.NormalizeCode(code)
}

// Search returns the direct code match first, then every entry whose code,
// name or English name contains query, case-insensitively. No duplicates.
func (d *Directory) Search(query string) []model.Currency {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []model.Currency
	direct, hasDirect := d.Lookup(q)
	if hasDirect {
		out = append(out, direct)
	}
	for _, c := range d.all {
		if hasDirect && c.Code == direct.Code {
			continue
		}
		if strings.Contains(strings.ToLower(c.Code), q) ||
			strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.NameEn), q) {
			out = append(out, c)
		}
	}
	return out
}

var featuredOrder = []string{
	model.CategoryMajor,
	model.CategoryRegional,
	model.CategoryCrypto,
	model.CategoryMetal,
}

// Featured groups the curated subset in fixed category order. Empty groups are skipped.
func (d *Directory) Featured() []Group {
	byCategory := make(map[string][]model.Currency)
	for _, c := range d.all {
		if c.Featured {
			byCategory[c.Category] = append(byCategory[c.Category], c)
		}
	}

	groups := make([]Group, 0, len(featuredOrder))
	for _, cat := range featuredOrder {
		if items := byCategory[cat]; len(items) > 0 {
			groups = append(groups, Group{Category: cat, Items: items})
		}
	}
	return groups
}
