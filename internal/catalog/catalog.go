package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	ErrUnknownBoss       = errors.New("unknown boss")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrUnknownCategory   = errors.New("unknown shard category")
	ErrCatalogConfig     = errors.New("invalid catalog config")
)

type Boss struct {
	Code         string   `yaml:"code"`
	Name         string   `yaml:"name"`
	Difficulties []string `yaml:"difficulties"`
}

// MercyRule drives the current drop chance.
type MercyRule struct {
	Threshold float64 `yaml:"threshold"`
	Increment float64 `yaml:"increment"`
	Base      float64 `yaml:"base"`
}

// GuaranteedRule drives the guaranteed pull point.
type GuaranteedRule struct {
	Start     float64 `yaml:"start"`
	Increment float64 `yaml:"increment"`
	Base      float64 `yaml:"base"`
}

type rawCatalog struct {
	Bosses             []Boss                       `yaml:"bosses"`
	DifficultyNames    map[string]string            `yaml:"difficulty_names"`
	Shorthands         map[string]string            `yaml:"shorthands"`
	Clans              []string                     `yaml:"clans"`
	EvidenceExtensions []string                     `yaml:"evidence_extensions"`
	Mercy              map[string]MercyRule         `yaml:"mercy"`
	Guaranteed         map[string]GuaranteedRule    `yaml:"guaranteed"`
	Composites         map[string]map[string]string `yaml:"composites"`
}

// Catalog is the static boss, clan and shard configuration. It is immutable
// after Load and safe for concurrent use.
type Catalog struct {
	bosses          []Boss
	bossByCode      map[string]Boss
	difficultyNames map[string]string
	shorthands      map[string]string
	clans           []string // longest first
	extensions      map[string]bool
	mercy           map[string]MercyRule
	guaranteed      map[string]GuaranteedRule
	composites      map[string]map[string]string
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return build(raw)
}

func build(raw rawCatalog) (*Catalog, error) {
	c := &Catalog{
		bossByCode:      make(map[string]Boss, len(raw.Bosses)),
		difficultyNames: lowerKeys(raw.DifficultyNames),
		shorthands:      make(map[string]string, len(raw.Shorthands)),
		extensions:      make(map[string]bool, len(raw.EvidenceExtensions)),
		mercy:           make(map[string]MercyRule, len(raw.Mercy)),
		guaranteed:      make(map[string]GuaranteedRule, len(raw.Guaranteed)),
		composites:      make(map[string]map[string]string, len(raw.Composites)),
	}

	if len(raw.Bosses) == 0 {
		return nil, fmt.Errorf("%w: no bosses", ErrCatalogConfig)
	}
	for _, b := range raw.Bosses {
		b.Code = strings.ToLower(strings.TrimSpace(b.Code))
		if b.Code == "" || b.Name == "" {
			return nil, fmt.Errorf("%w: boss needs code and name", ErrCatalogConfig)
		}
		if _, dup := c.bossByCode[b.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate boss %q", ErrCatalogConfig, b.Code)
		}
		diffs := make([]string, len(b.Difficulties))
		for i, d := range b.Difficulties {
			diffs[i] = strings.ToLower(d)
		}
		b.Difficulties = diffs
		c.bosses = append(c.bosses, b)
		c.bossByCode[b.Code] = b
	}

	for k, v := range raw.Shorthands {
		c.shorthands[strings.ToLower(k)] = strings.ToLower(v)
	}

	for _, tag := range raw.Clans {
		tag = strings.ToUpper(strings.TrimSpace(tag))
		if tag != "" {
			c.clans = append(c.clans, tag)
		}
	}
	sort.SliceStable(c.clans, func(i, j int) bool { return len(c.clans[i]) > len(c.clans[j]) })

	for _, ext := range raw.EvidenceExtensions {
		c.extensions[strings.TrimPrefix(strings.ToLower(ext), ".")] = true
	}

	for name, rule := range raw.Mercy {
		name = strings.ToLower(name)
		g, ok := raw.Guaranteed[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q has no guaranteed rule", ErrCatalogConfig, name)
		}
		if rule.Increment <= 0 || g.Increment <= 0 {
			return nil, fmt.Errorf("%w: %q increment must be positive", ErrCatalogConfig, name)
		}
		c.mercy[name] = rule
		c.guaranteed[name] = g
	}
	for name := range raw.Guaranteed {
		if _, ok := c.mercy[strings.ToLower(name)]; !ok {
			return nil, fmt.Errorf("%w: %q has no mercy rule", ErrCatalogConfig, name)
		}
	}

	for name, members := range raw.Composites {
		name = strings.ToLower(name)
		if _, clash := c.mercy[name]; clash {
			return nil, fmt.Errorf("%w: composite %q shadows a category", ErrCatalogConfig, name)
		}
		m := make(map[string]string, len(members))
		for sub, cat := range members {
			cat = strings.ToLower(cat)
			if _, ok := c.mercy[cat]; !ok {
				return nil, fmt.Errorf("%w: composite %q references unknown %q", ErrCatalogConfig, name, cat)
			}
			m[strings.ToLower(sub)] = cat
		}
		c.composites[name] = m
	}

	return c, nil
}

func (c *Catalog) Bosses() []Boss {
	out := make([]Boss, len(c.bosses))
	copy(out, c.bosses)
	return out
}

func (c *Catalog) Boss(code string) (Boss, bool) {
	b, ok := c.bossByCode[strings.ToLower(strings.TrimSpace(code))]
	return b, ok
}

// Normalize lower-cases a difficulty and expands shorthands like "nm".
func (c *Catalog) Normalize(input string) string {
	d := strings.ToLower(strings.TrimSpace(input))
	if full, ok := c.shorthands[d]; ok {
		return full
	}
	return d
}

func (c *Catalog) IsValid(boss, difficulty string) bool {
	_, _, err := c.Resolve(boss, difficulty)
	return err == nil
}

// Resolve returns the canonical boss and difficulty codes. Bosses without a
// difficulty axis resolve to an empty difficulty.
func (c *Catalog) Resolve(boss, difficulty string) (string, string, error) {
	b, ok := c.Boss(boss)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownBoss, boss)
	}

	d := c.Normalize(difficulty)
	if len(b.Difficulties) == 0 {
		if d != "" {
			return "", "", fmt.Errorf("%w: %s has no difficulties", ErrInvalidDifficulty, b.Name)
		}
		return b.Code, "", nil
	}
	for _, valid := range b.Difficulties {
		if d == valid {
			return b.Code, d, nil
		}
	}
	return "", "", fmt.Errorf("%w: %q for %s", ErrInvalidDifficulty, difficulty, b.Name)
}

func (c *Catalog) DifficultyName(code string) string {
	if name, ok := c.difficultyNames[strings.ToLower(code)]; ok {
		return name
	}
	if code == "" {
		return ""
	}
	return strings.ToUpper(code[:1]) + strings.ToLower(code[1:])
}

func (c *Catalog) AcceptsExtension(ext string) bool {
	return c.extensions[strings.TrimPrefix(strings.ToLower(ext), ".")]
}

func (c *Catalog) Clans() []string {
	out := make([]string, len(c.clans))
	copy(out, c.clans)
	return out
}

func (c *Catalog) HasClan(tag string) bool {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	for _, t := range c.clans {
		if t == tag {
			return true
		}
	}
	return false
}

// ClanOf classifies a display name by its clan prefix: "[RTF] name",
// "[RTF]name" or "RTF name". Longer tags are tried first.
func (c *Catalog) ClanOf(displayName string) (string, bool) {
	name := strings.ToUpper(strings.TrimSpace(displayName))
	for _, tag := range c.clans {
		if strings.HasPrefix(name, "["+tag+"]") {
			return tag, true
		}
	}
	for _, tag := range c.clans {
		if rest, ok := strings.CutPrefix(name, tag); ok && rest != "" && isSeparator(rest[0]) {
			return tag, true
		}
	}
	return "", false
}

func isSeparator(b byte) bool {
	switch b {
	case ' ', '|', '-', '_', '.', ':':
		return true
	}
	return false
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
