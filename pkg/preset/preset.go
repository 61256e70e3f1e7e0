// Package preset holds the catalogs the editor offers: page sizes for new
// documents, outfit prompts for the dress-change AI action and studio
// backdrop colors.
//
// The built-in catalog is embedded. [Load] reads an override file; any
// section present in the file replaces the corresponding built-in section.
package preset

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/photostudio/pkg/errors"
)

//go:embed presets.toml
var builtinTOML []byte

// Page is a named canvas size. Choosing one is the only way to create a
// document.
type Page struct {
	Name        string `toml:"name" json:"name"`
	Width       int    `toml:"width" json:"width"`
	Height      int    `toml:"height" json:"height"`
	Description string `toml:"description" json:"description"`
}

// Outfit is a dress-change preset.
type Outfit struct {
	ID     string `toml:"id" json:"id"`
	Label  string `toml:"label" json:"label"`
	Prompt string `toml:"prompt" json:"prompt"`
}

// Color is a studio backdrop color.
type Color struct {
	Name  string `toml:"name" json:"name"`
	Value string `toml:"value" json:"value"`
}

// Catalog is the full set of presets.
type Catalog struct {
	Pages   []Page   `toml:"page" json:"pages"`
	Outfits []Outfit `toml:"outfit" json:"outfits"`
	Colors  []Color  `toml:"color" json:"colors"`
}

var (
	builtin     *Catalog
	builtinErr  error
	builtinOnce sync.Once
)

// Default returns the built-in catalog. The result is shared; callers must
// not modify it.
func Default() *Catalog {
	builtinOnce.Do(func() {
		builtin, builtinErr = Parse(builtinTOML)
	})
	if builtinErr != nil {
		panic(fmt.Sprintf("preset: built-in catalog is invalid: %v", builtinErr))
	}
	return builtin
}

// Parse decodes and validates a catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPreset, err, "parse preset catalog")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads an override file and merges it over the built-in catalog.
// An empty path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var override Catalog
	if err := toml.Unmarshal(data, &override); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPreset, err, "parse %s", path)
	}

	merged := *Default()
	if len(override.Pages) > 0 {
		merged.Pages = override.Pages
	}
	if len(override.Outfits) > 0 {
		merged.Outfits = override.Outfits
	}
	if len(override.Colors) > 0 {
		merged.Colors = override.Colors
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that every preset is usable.
func (c *Catalog) Validate() error {
	if len(c.Pages) == 0 {
		return errors.New(errors.ErrCodeInvalidPreset, "catalog has no page presets")
	}
	seen := map[string]bool{}
	for _, p := range c.Pages {
		if strings.TrimSpace(p.Name) == "" {
			return errors.New(errors.ErrCodeInvalidPreset, "page preset without a name")
		}
		if p.Width <= 0 || p.Height <= 0 {
			return errors.New(errors.ErrCodeInvalidPreset, "page %q has invalid size %dx%d", p.Name, p.Width, p.Height)
		}
		key := strings.ToLower(p.Name)
		if seen[key] {
			return errors.New(errors.ErrCodeInvalidPreset, "duplicate page preset %q", p.Name)
		}
		seen[key] = true
	}
	for _, o := range c.Outfits {
		if o.ID == "" || strings.TrimSpace(o.Prompt) == "" {
			return errors.New(errors.ErrCodeInvalidPreset, "outfit %q needs an id and a prompt", o.Label)
		}
	}
	for _, col := range c.Colors {
		if err := errors.ValidateColor(col.Value); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPreset, err, "color %q", col.Name)
		}
	}
	return nil
}

// Page looks up a page preset by name, ignoring case.
func (c *Catalog) Page(name string) (Page, error) {
	for _, p := range c.Pages {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Page{}, errors.New(errors.ErrCodeInvalidPreset, "unknown page preset %q", name)
}

// DefaultPage returns the first page preset, used on first launch.
func (c *Catalog) DefaultPage() Page {
	return c.Pages[0]
}

// Outfit looks up an outfit preset by id.
func (c *Catalog) Outfit(id string) (Outfit, error) {
	for _, o := range c.Outfits {
		if o.ID == id {
			return o, nil
		}
	}
	return Outfit{}, errors.New(errors.ErrCodeInvalidPreset, "unknown outfit %q", id)
}

// Color looks up a backdrop color by name, ignoring case, and returns its
// value.
func (c *Catalog) Color(name string) (string, error) {
	for _, col := range c.Colors {
		if strings.EqualFold(col.Name, name) {
			return col.Value, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidPreset, "unknown color %q", name)
}

// ResolveColor accepts a studio color name or a literal color value
// ("#0033aa", "transparent") and returns the value.
func (c *Catalog) ResolveColor(s string) (string, error) {
	if v, err := c.Color(s); err == nil {
		return v, nil
	}
	if err := errors.ValidateColor(s); err != nil {
		return "", err
	}
	return s, nil
}

// PageNames returns page preset names in catalog order.
func (c *Catalog) PageNames() []string {
	names := make([]string, len(c.Pages))
	for i, p := range c.Pages {
		names[i] = p.Name
	}
	return names
}
