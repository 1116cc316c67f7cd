// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionStatus indicates the outcome of converting one source document.
type ConversionStatus string

const (
	ConversionNone      ConversionStatus = "none"
	ConversionDone      ConversionStatus = "converted"
	ConversionUnchanged ConversionStatus = "unchanged"
	ConversionFailed    ConversionStatus = "failed"
)

// FileStatus reports the outcome of a maintenance pass over one notebook.
type FileStatus string

const (
	FileOK      FileStatus = "ok"
	FileFixed   FileStatus = "fixed"
	FileFailed  FileStatus = "failed"
	FileRenamed FileStatus = "renamed"
)

// ConversionRecord is one row of the conversion ledger.
type ConversionRecord struct {
	// SourcePath is the absolute path of the markup source.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// SourceHash is the hex SHA-256 of the source bytes at conversion time.
	SourceHash string `json:"source_hash" yaml:"source_hash"`

	// SettingsHash fingerprints the profile and options the notebook was
	// built with.
	SettingsHash string `json:"settings_hash" yaml:"settings_hash"`

	// OutputPath is where the notebook was written.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// Status is the outcome of the last conversion attempt.
	Status ConversionStatus `json:"status" yaml:"status"`

	// Cells is the number of cells in the written notebook.
	Cells int `json:"cells" yaml:"cells"`

	// Message holds the error text for failed conversions.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// ConvertedAt is when the record was last written.
	ConvertedAt time.Time `json:"converted_at" yaml:"converted_at"`
}
