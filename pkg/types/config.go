package types

// ReportFormat selects the serialization format for the report file.
type ReportFormat string

const (
	FormatJSON ReportFormat = "json"
	FormatYAML ReportFormat = "yaml"
)

// ExtractConfig holds settings for the block extraction stage.
type ExtractConfig struct {
	// Fence is the marker string that opens and closes a block
	// (default "```"). An opening marker must be followed directly by a
	// newline; a closing marker must be preceded by one.
	Fence string `json:"fence" yaml:"fence"`
}

// ConvertConfig holds settings for the conversion stage.
type ConvertConfig struct {
	// Format selects the report serialization: json or yaml.
	Format ReportFormat `json:"format" yaml:"format"`

	// Workers is the number of messages parsed concurrently (default 1,
	// strictly sequential). Report order is extraction order either way.
	Workers int `json:"workers" yaml:"workers"`
}

// ArchiveConfig holds settings for the run archive.
type ArchiveConfig struct {
	// Enabled controls whether completed runs are recorded.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir is the directory holding the archive database (default ".hl7convert").
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Extract ExtractConfig `json:"extract" yaml:"extract"`
	Convert ConvertConfig `json:"convert" yaml:"convert"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}
