package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInfo(t *testing.T) {
	tests := []struct {
		info       string
		wantEngine string
		wantInline string
	}{
		{info: "{r}", wantEngine: "r"},
		{info: "{R setup, include=FALSE}", wantEngine: "r", wantInline: "setup, include=FALSE"},
		{info: "{r, echo=FALSE}", wantEngine: "r", wantInline: "echo=FALSE"},
		{info: "{.python}", wantEngine: "python"},
		{info: "python", wantEngine: "python"},
		{info: "{=html}", wantEngine: "=html"},
		{info: "", wantEngine: ""},
		{info: "{}", wantEngine: ""},
	}
	for _, tt := range tests {
		t.Run(tt.info, func(t *testing.T) {
			engine, inline := parseInfo(tt.info)
			assert.Equal(t, tt.wantEngine, engine)
			assert.Equal(t, tt.wantInline, inline)
		})
	}
}

func TestScan(t *testing.T) {
	src := "Intro\n\n```{r label}\n#| echo: false\nx <- 1\n```\n\nMiddle\n~~~python\nprint(1)\n~~~\n"
	segs, err := Scan(SplitLines(src, 1))
	require.NoError(t, err)
	require.Len(t, segs, 4)

	assert.Equal(t, SegmentProse, segs[0].Kind)
	assert.Equal(t, "Intro", segs[0].Prose[0].Text)

	c := segs[1].Chunk
	require.NotNil(t, c)
	assert.Equal(t, "r", c.Engine)
	assert.Equal(t, "label", c.InlineOptions)
	assert.Equal(t, []string{"#| echo: false"}, c.Options)
	assert.Equal(t, []string{"x <- 1"}, c.Body)
	assert.Equal(t, 3, c.Line)

	assert.Equal(t, SegmentProse, segs[2].Kind)
	assert.Equal(t, "python", segs[3].Chunk.Engine)
	assert.Equal(t, []string{"print(1)"}, segs[3].Chunk.Body)
}

func TestScan_FenceInsideBody(t *testing.T) {
	// An inner fence with an info string is body text, not a close.
	src := "````{r}\ncat('```{r}')\n```{python}\n````\n"
	segs, err := Scan(SplitLines(src, 1))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, []string{"cat('```{r}')", "```{python}"}, segs[0].Chunk.Body)
}

func TestScan_ShortCloseDoesNotEndLongFence(t *testing.T) {
	src := "````\na\n```\nb\n````\n"
	segs, err := Scan(SplitLines(src, 1))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, []string{"a", "```", "b"}, segs[0].Chunk.Body)
}

func TestScan_IndentedChunk(t *testing.T) {
	src := "1. step\n\n   ```{r}\n   y <- 2\n     z\n   ```\n"
	segs, err := Scan(SplitLines(src, 1))
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, []string{"y <- 2", "  z"}, segs[1].Chunk.Body)
}

func TestScan_UnterminatedFence(t *testing.T) {
	src := "# Title\n\n  ```{r}\nx <- 1\n\nMore prose\n"
	segs, err := Scan(SplitLines(src, 1))
	require.Error(t, err)

	fes := FenceErrors(err)
	require.Len(t, fes, 1)
	assert.Equal(t, 3, fes[0].Line)
	assert.Equal(t, 3, fes[0].Column)
	assert.Contains(t, err.Error(), "line 3, column 3")

	// The remainder is not swallowed: everything comes back as prose.
	require.Len(t, segs, 1)
	assert.Equal(t, SegmentProse, segs[0].Kind)
	assert.Len(t, segs[0].Prose, 6)
}

func TestScan_ResumesAfterUnterminatedFence(t *testing.T) {
	// The tilde opener never closes. Scanning resumes on the line after it,
	// so the backtick opener pairs with the final close.
	src := "~~~{r}\na\n```{python}\nb\n```\n"
	segs, err := Scan(SplitLines(src, 1))
	fes := FenceErrors(err)
	require.Len(t, fes, 1)
	assert.Equal(t, 1, fes[0].Line)

	require.Len(t, segs, 2)
	assert.Equal(t, SegmentProse, segs[0].Kind)
	assert.Equal(t, "python", segs[1].Chunk.Engine)
	assert.Equal(t, []string{"b"}, segs[1].Chunk.Body)
}

func TestScan_MultipleUnterminated(t *testing.T) {
	src := "```{r}\na\n~~~{python}\nb\n"
	_, err := Scan(SplitLines(src, 10))
	fes := FenceErrors(err)
	require.Len(t, fes, 2)
	assert.Equal(t, 10, fes[0].Line)
	assert.Equal(t, 12, fes[1].Line)
}

func TestScan_InlineTripleBacktickIsNotFence(t *testing.T) {
	segs, err := Scan(SplitLines("use ```x``` here\n```x``` too\n", 1))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, SegmentProse, segs[0].Kind)
}
