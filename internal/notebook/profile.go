// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// CellSpec is a fixed cell in a profile.
type CellSpec struct {
	Type   CellType `yaml:"type"`
	Source []string `yaml:"source"`
}

// Cell returns the notebook cell described by s.
func (s CellSpec) Cell() Cell {
	return Cell{Type: s.Type, Source: append([]string(nil), s.Source...)}
}

// Profile is the static boilerplate a conversion adds around the document
// content: the banner, the setup cells placed before the first
// primary-language chunk, and the per-engine cell magics.
type Profile struct {
	// Primary is the engine whose first chunk triggers the setup cells.
	Primary string `yaml:"primary"`

	// Magics maps engine tags to the cell magic placed on the first line.
	Magics map[string]string `yaml:"magics"`

	// Banner is the markdown of the first cell. Empty means no banner.
	Banner []string `yaml:"banner"`

	// Setup is inserted once, before the first primary chunk.
	Setup []CellSpec `yaml:"setup"`

	// Separator is a markdown cell placed after Setup. Empty means none.
	Separator []string `yaml:"separator"`

	// DropSections lists heading texts whose heading cell and the prose
	// directly under it are left out.
	DropSections []string `yaml:"drop_sections,omitempty"`

	Kernelspec Kernelspec `yaml:"kernelspec"`
	TOCVisible bool       `yaml:"toc_visible"`
}

// DefaultProfile returns the Colab profile: an image banner, rpy2
// installation, Google Drive mount, and a rule before the R content.
func DefaultProfile() *Profile {
	return &Profile{
		Primary: "r",
		Magics: map[string]string{
			"r":    "%%R",
			"bash": "%%bash",
			"sh":   "%%bash",
		},
		Banner: []string{
			"![Survival Analysis with R](http://drive.google.com/uc?export=view&id=1bLQ3nhDbZrCCqy_WCxxckOne2lgVvn3l)",
			"",
			"<br>",
		},
		Setup: []CellSpec{
			{Type: Markdown, Source: []string{"## Install rpy2"}},
			{Type: Code, Source: []string{
				"!pip uninstall rpy2 -y -q",
				"!pip install rpy2==3.5.1 -q",
				"%load_ext rpy2.ipython",
			}},
			{Type: Markdown, Source: []string{"## Mount Google Drive"}},
			{Type: Code, Source: []string{
				"from google.colab import drive",
				"drive.mount('/content/drive')",
			}},
		},
		Separator: []string{"", "---", ""},
		Kernelspec: Kernelspec{
			DisplayName: "Python 3",
			Language:    "python",
			Name:        "python3",
		},
		TOCVisible: true,
	}
}

// LoadProfile reads a YAML profile from path. Keys missing from the file
// keep their default values; magics are merged with the defaults.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	p := DefaultProfile()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// WriteYAML writes p as YAML, the same format LoadProfile reads.
func (p *Profile) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return enc.Close()
}

// Validate checks that the profile can drive a conversion.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Primary) == "" {
		return fmt.Errorf("primary engine is required")
	}
	for i, s := range p.Setup {
		if s.Type != Markdown && s.Type != Code {
			return fmt.Errorf("setup cell %d: unknown type %q", i, s.Type)
		}
	}
	if p.Kernelspec.Name == "" {
		return fmt.Errorf("kernelspec.name is required")
	}
	return nil
}

// Magic returns the cell magic for engine, or "".
func (p *Profile) Magic(engine string) string {
	return p.Magics[strings.ToLower(engine)]
}

func (p *Profile) drops(heading string) bool {
	for _, d := range p.DropSections {
		if strings.EqualFold(strings.TrimSpace(d), heading) {
			return true
		}
	}
	return false
}
