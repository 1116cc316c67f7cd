// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// NamingScheme selects how output notebook filenames are derived from the
// source filename.
type NamingScheme string

const (
	// NamingSlug lower-cases the stem, drops punctuation, and joins words
	// with underscores ("Kaplan Meier (R)" becomes "kaplan_meier_r").
	NamingSlug NamingScheme = "slug"
	// NamingStem keeps the source stem unchanged.
	NamingStem NamingScheme = "stem"
)

// UntaggedPolicy decides how a fenced chunk without an engine tag is classified.
type UntaggedPolicy string

const (
	// UntaggedPrimary treats untagged chunks as the primary language.
	UntaggedPrimary UntaggedPolicy = "primary"
	// UntaggedOther keeps untagged chunks as opaque code with no magic.
	UntaggedOther UntaggedPolicy = "other"
)

// ConversionConfig holds settings for the convert stage.
type ConversionConfig struct {
	// InputDir is the folder searched recursively for markup sources.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir receives the generated notebooks (default "Colab_Notebooks").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Extensions lists the source extensions to convert (default .qmd, .Rmd).
	Extensions []string `json:"extensions" yaml:"extensions"`

	// ProfilePath points at a YAML boilerplate profile. Empty uses the
	// built-in Colab + rpy2 profile.
	ProfilePath string `json:"profile" yaml:"profile"`

	// Primary overrides the profile's primary engine when non-empty.
	Primary string `json:"primary" yaml:"primary"`

	// Untagged decides what an untagged chunk is (default primary).
	Untagged UntaggedPolicy `json:"untagged" yaml:"untagged"`

	// Naming selects the output filename scheme (default slug).
	Naming NamingScheme `json:"naming" yaml:"naming"`

	// KeepOptions copies inline chunk options into the code cell after the magic line.
	KeepOptions bool `json:"keep_options" yaml:"keep_options"`

	// LayoutClasses lists fenced-div classes removed before scanning.
	LayoutClasses []string `json:"layout_classes" yaml:"layout_classes"`

	// Ledger is the SQLite ledger path. Empty places it in OutputDir;
	// "-" disables the ledger.
	Ledger string `json:"ledger" yaml:"ledger"`

	// Force reconverts sources the ledger reports as unchanged.
	Force bool `json:"force" yaml:"force"`
}

// MaintenanceConfig holds settings shared by repair, tidy, check, and rename.
type MaintenanceConfig struct {
	// Dir is the folder to walk (default ".").
	Dir string `json:"dir" yaml:"dir"`

	// RLibrary is the Drive folder tidy points R package installs at.
	RLibrary string `json:"r_library" yaml:"r_library"`

	// RenameFrom and RenameTo are the substring replacement used by rename.
	RenameFrom string `json:"rename_from" yaml:"rename_from"`
	RenameTo   string `json:"rename_to" yaml:"rename_to"`

	// RenameExt limits rename to files with this extension (default .ipynb).
	RenameExt string `json:"rename_ext" yaml:"rename_ext"`

	// DryRun prints the planned renames without touching the filesystem.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// DefaultConversionConfig returns the settings used when neither flags nor a
// config file say otherwise.
func DefaultConversionConfig() ConversionConfig {
	return ConversionConfig{
		OutputDir:     "Colab_Notebooks",
		Extensions:    []string{".qmd", ".Rmd"},
		Untagged:      UntaggedPrimary,
		Naming:        NamingSlug,
		LayoutClasses: []string{"layout-ncol", "layout-nrow", "layout"},
	}
}

// DefaultMaintenanceConfig returns the maintenance defaults.
func DefaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		Dir:        ".",
		RLibrary:   "drive/My Drive/R",
		RenameFrom: "-",
		RenameTo:   "_",
		RenameExt:  ".ipynb",
	}
}
