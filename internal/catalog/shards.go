package catalog

import (
	"fmt"
	"sort"
	"strings"
)

func (c *Catalog) MercyRule(category string) (MercyRule, bool) {
	r, ok := c.mercy[strings.ToLower(category)]
	return r, ok
}

func (c *Catalog) GuaranteedRule(category string) (GuaranteedRule, bool) {
	r, ok := c.guaranteed[strings.ToLower(category)]
	return r, ok
}

func (c *Catalog) IsComposite(category string) bool {
	_, ok := c.composites[strings.ToLower(category)]
	return ok
}

// Expand returns the stored counters behind a category: itself for a plain
// category, or the sorted members of a composite one.
func (c *Catalog) Expand(category string) ([]string, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if members, ok := c.composites[category]; ok {
		subs := make([]string, 0, len(members))
		for sub := range members {
			subs = append(subs, sub)
		}
		sort.Strings(subs)
		out := make([]string, len(subs))
		for i, sub := range subs {
			out[i] = members[sub]
		}
		return out, nil
	}
	if _, ok := c.mercy[category]; ok {
		return []string{category}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
}

// SubCategory maps ("primal", "legendary") to "primal_legendary".
func (c *Catalog) SubCategory(composite, subtype string) (string, error) {
	members, ok := c.composites[strings.ToLower(strings.TrimSpace(composite))]
	if !ok {
		return "", fmt.Errorf("%w: %q is not a composite category", ErrUnknownCategory, composite)
	}
	cat, ok := members[strings.ToLower(strings.TrimSpace(subtype))]
	if !ok {
		return "", fmt.Errorf("%w: subtype %q of %q", ErrUnknownCategory, subtype, composite)
	}
	return cat, nil
}

// ShardCategories lists every counter-backed category, sorted.
func (c *Catalog) ShardCategories() []string {
	out := make([]string, 0, len(c.mercy))
	for name := range c.mercy {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
