package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripLayoutBlocks(t *testing.T) {
	src := "keep 1\n::: {layout-ncol=\"3\"}\n![a](a.png)\n::: {.inner}\nx\n:::\n![b](b.png)\n:::\nkeep 2\n::: {.callout-note}\nnote\n:::\n"
	got := StripLayoutBlocks(SplitLines(src, 1), []string{"layout-ncol"})

	var texts []string
	for _, l := range got {
		texts = append(texts, l.Text)
	}
	assert.Equal(t, []string{"keep 1", "keep 2", "::: {.callout-note}", "note", ":::"}, texts)
	assert.Equal(t, 9, got[1].Num)
}

func TestStripLayoutBlocks_Unclosed(t *testing.T) {
	src := "::: {layout-ncol=2}\nimage\n"
	got := StripLayoutBlocks(SplitLines(src, 1), []string{"layout-ncol"})
	assert.Len(t, got, 2)
}

func TestStripFrontMatter(t *testing.T) {
	src := "---\ntitle: \"Kaplan-Meier\"\nformat: html\n---\n\n# Body\n"
	meta, body, offset := StripFrontMatter(src)
	assert.Equal(t, "Kaplan-Meier", meta.Title)
	assert.Equal(t, "html", meta.Extra["format"])
	assert.Contains(t, body, "# Body")
	assert.NotContains(t, body, "title:")

	lines := SplitLines(body, offset+1)
	last := lines[len(lines)-1]
	assert.Equal(t, "# Body", last.Text)
	assert.Equal(t, 6, last.Num)
}

func TestStripFrontMatter_None(t *testing.T) {
	src := "# Just a doc\n"
	meta, body, offset := StripFrontMatter(src)
	assert.Empty(t, meta.Title)
	assert.Equal(t, src, body)
	assert.Zero(t, offset)
}

func TestFirstHeading(t *testing.T) {
	src := "```{r}\n# not a heading\n```\n\n## Second\n\n# Real Title\n"
	assert.Equal(t, "Real Title", FirstHeading([]byte(src)))
	assert.Equal(t, "", FirstHeading([]byte("no headings")))
}

func TestParse(t *testing.T) {
	src := "---\ntitle: Survival\n---\n\n# Intro\r\n\r\n```{r}\r\nx <- 1\r\n```\r\n"
	doc, err := Parse(src, Options{LayoutClasses: []string{"layout-ncol"}})
	require.NoError(t, err)
	assert.Equal(t, "Survival", doc.Title)
	require.Len(t, doc.Segments, 2)
	assert.Equal(t, []string{"x <- 1"}, doc.Segments[1].Chunk.Body)
}

func TestParse_TitleFallsBackToHeading(t *testing.T) {
	doc, err := Parse("# Cox Models\n\ntext\n", Options{})
	require.NoError(t, err)
	assert.Equal(t, "Cox Models", doc.Title)
}

func TestParse_ErrorLineAccountsForFrontMatter(t *testing.T) {
	src := "---\ntitle: T\n---\n\n```{r}\nx\n"
	doc, err := Parse(src, Options{})
	require.Error(t, err)
	fes := FenceErrors(err)
	require.Len(t, fes, 1)
	assert.Equal(t, 5, fes[0].Line)
	assert.NotNil(t, doc)
}
