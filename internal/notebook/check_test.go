package notebook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantValid bool
		wantMsgs  []string
	}{
		{
			name:      "valid",
			in:        `{"cells":[{"cell_type":"code","metadata":{},"source":[],"outputs":[],"execution_count":null}],"metadata":{},"nbformat":4,"nbformat_minor":5}`,
			wantValid: true,
		},
		{
			name:      "missing execution_count is a warning",
			in:        `{"cells":[{"cell_type":"code","metadata":{},"source":"x","outputs":[]}],"metadata":{},"nbformat":4,"nbformat_minor":5}`,
			wantValid: true,
			wantMsgs:  []string{"missing 'execution_count'"},
		},
		{
			name:     "missing outputs is an error",
			in:       `{"cells":[{"cell_type":"code","metadata":{},"source":"x","execution_count":null}],"metadata":{},"nbformat":4,"nbformat_minor":5}`,
			wantMsgs: []string{"missing 'outputs'"},
		},
		{
			name: "schema violation",
			in:   `{"cells":[{"cell_type":"widget","metadata":{},"source":"x"}],"metadata":{},"nbformat":3,"nbformat_minor":0}`,
		},
		{
			name: "missing top-level keys",
			in:   `{"cells":[]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Check([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, report.Valid(), "issues: %v", report.Issues)
			for _, msg := range tt.wantMsgs {
				found := false
				for _, i := range report.Issues {
					if i.Message == msg {
						found = true
						assert.Equal(t, "/cells/0", i.Location)
					}
				}
				assert.True(t, found, "expected issue %q in %v", msg, report.Issues)
			}
		})
	}
}

func TestCheck_SyntaxError(t *testing.T) {
	_, err := Check([]byte("{\n  \"cells\": [,]\n}"))
	var se *SyntaxError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, 2, se.Line)
	assert.Equal(t, 13, se.Column)
}
