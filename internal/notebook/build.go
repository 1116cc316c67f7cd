// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/qmd2colab/internal/markup"
	"github.com/pdiddy/qmd2colab/pkg/types"
)

// BuildOptions carry the per-document settings for Build.
type BuildOptions struct {
	// Name identifies the document. It seeds the cell ids and becomes the
	// Colab notebook name when the document has no title.
	Name string

	// Untagged decides whether untagged chunks count as primary.
	Untagged types.UntaggedPolicy

	// KeepOptions keeps chunk options in primary code cells.
	KeepOptions bool
}

// idNamespace scopes the deterministic cell ids.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://colab.research.google.com/qmd2colab"))

// Build assembles the notebook for doc using profile p.
func Build(doc *markup.Document, p *Profile, opts BuildOptions) *Notebook {
	cells := Assemble(doc.Segments, p, opts)
	AssignIDs(cells, opts.Name)

	name := doc.Title
	if name == "" {
		name = opts.Name
	}

	return &Notebook{
		Cells: cells,
		Metadata: Metadata{
			Colab: &ColabMetadata{
				Name:       name,
				Provenance: []any{},
				TOCVisible: p.TOCVisible,
			},
			Kernelspec:   p.Kernelspec,
			LanguageInfo: LanguageInfo{Name: strings.ToLower(p.Kernelspec.Language)},
		},
		NBFormat:      nbformatMajor,
		NBFormatMinor: nbformatMinor,
	}
}

// AssignIDs gives every cell a stable id derived from seed and its
// position, so converting the same source twice yields identical bytes.
func AssignIDs(cells []Cell, seed string) {
	for i := range cells {
		cells[i].ID = uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s#%d", seed, i))).String()
	}
}

// assembly is the accumulator threaded through the segments. setupDone
// records whether the setup cells have been placed.
type assembly struct {
	cells     []Cell
	setupDone bool
}

// Assemble folds segments into cells: the banner first, then prose and
// chunk cells in source order, with the profile's setup cells placed once
// immediately before the first primary-language chunk.
func Assemble(segments []markup.Segment, p *Profile, opts BuildOptions) []Cell {
	acc := assembly{}
	if len(p.Banner) > 0 {
		acc = acc.add(NewMarkdown(p.Banner...))
	}
	for _, seg := range segments {
		acc = acc.step(seg, p, opts)
	}
	return acc.cells
}

func (a assembly) add(cells ...Cell) assembly {
	a.cells = append(a.cells, cells...)
	return a
}

func (a assembly) step(seg markup.Segment, p *Profile, opts BuildOptions) assembly {
	if seg.Kind == markup.SegmentProse {
		return a.prose(seg.Prose, p)
	}
	return a.chunk(seg.Chunk, p, opts)
}

func (a assembly) prose(lines []markup.Line, p *Profile) assembly {
	dropping := false
	for _, block := range markup.SplitProse(lines) {
		heading := len(block) == 1 && markup.IsHeading(block[0])
		if heading {
			dropping = p.drops(markup.HeadingText(block[0]))
			if dropping {
				continue
			}
		} else if dropping {
			dropping = false
			continue
		}
		a = a.add(NewMarkdown(block...))
	}
	return a
}

func (a assembly) chunk(c *markup.Chunk, p *Profile, opts BuildOptions) assembly {
	body := trimTrailingBlank(c.Body)

	if strings.HasPrefix(c.Engine, "=") {
		if len(body) == 0 {
			return a
		}
		return a.add(NewMarkdown(body...))
	}

	engine := c.Engine
	if engine == "" && opts.Untagged != types.UntaggedOther {
		engine = p.Primary
	}
	primary := strings.EqualFold(engine, p.Primary)

	if primary && !a.setupDone {
		for _, s := range p.Setup {
			a = a.add(s.Cell())
		}
		if len(p.Separator) > 0 {
			a = a.add(NewMarkdown(p.Separator...))
		}
		a.setupDone = true
	}

	var src []string
	if magic := p.Magic(engine); magic != "" {
		src = append(src, magic)
	}
	if primary && opts.KeepOptions {
		if c.InlineOptions != "" {
			src = append(src, "#| "+c.InlineOptions)
		}
		src = append(src, c.Options...)
	}
	src = append(src, body...)

	return a.add(NewCode(src...))
}

func trimTrailingBlank(lines []string) []string {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[:end]
}
