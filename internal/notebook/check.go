// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notebook

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/nbformat.v4.schema.json
var nbformatSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("nbformat.v4.schema.json", bytes.NewReader(nbformatSchema)); err != nil {
			schemaErr = fmt.Errorf("loading nbformat schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("nbformat.v4.schema.json")
	})
	return compiledSchema, schemaErr
}

// Severity grades a check issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found by Check.
type Issue struct {
	Severity Severity `json:"severity"`
	Location string   `json:"location"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Severity, i.Location, i.Message)
}

// Report is the result of checking one notebook.
type Report struct {
	Cells  int     `json:"cells"`
	Issues []Issue `json:"issues"`
}

// Valid reports whether the notebook has no error-level issues.
func (r Report) Valid() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Check lints a serialized notebook against the embedded nbformat v4
// subset, which covers the top-level fields, cell types, ids, and sources.
// Malformed JSON returns a *SyntaxError. Structural problems are returned as
// issues: schema violations and code cells without outputs are errors, a
// missing execution_count is a warning.
func Check(data []byte) (Report, error) {
	if !json.Valid(data) {
		var v any
		return Report{}, newSyntaxError(data, json.Unmarshal(data, &v))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Report{}, fmt.Errorf("decoding notebook: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return Report{}, err
	}

	var report Report
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return Report{}, err
		}
		report.Issues = append(report.Issues, schemaIssues(ve)...)
	}

	obj, _ := doc.(map[string]any)
	cells, _ := obj["cells"].([]any)
	report.Cells = len(cells)
	for i, raw := range cells {
		cell, ok := raw.(map[string]any)
		if !ok || cell["cell_type"] != string(Code) {
			continue
		}
		loc := fmt.Sprintf("/cells/%d", i)
		if _, ok := cell["outputs"]; !ok {
			report.Issues = append(report.Issues, Issue{Severity: SeverityError, Location: loc, Message: "missing 'outputs'"})
		}
		if _, ok := cell["execution_count"]; !ok {
			report.Issues = append(report.Issues, Issue{Severity: SeverityWarning, Location: loc, Message: "missing 'execution_count'"})
		}
	}
	return report, nil
}

func schemaIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			loc := strings.TrimSpace(node.InstanceLocation)
			if loc == "" {
				loc = "/"
			}
			issues = append(issues, Issue{
				Severity: SeverityError,
				Location: loc,
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
