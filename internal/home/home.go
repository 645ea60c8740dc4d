package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the lessonkit home directory.
	DefaultDirName = ".lessonkit"

	// OutputsDirName holds every generated artifact.
	OutputsDirName = "outputs"

	// LogsDirName holds the LLM call log.
	LogsDirName = "logs"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// CallLogFileName is the JSONL file LLM calls are appended to.
	CallLogFileName = "llm_calls.jsonl"
)

// Output subdirectories, one per artifact kind.
const (
	WordDir            = "word"
	SlidesDir          = "slides"
	WorksheetsDir      = "worksheets"
	SourceMaterialsDir = "source_materials"
	AudioDir           = "audio"
	ImagesDir          = "images"
	FinalDir           = "final"
	JSONDir            = "json"
	MarkdownDir        = "markdown"
)

var outputDirs = []string{
	WordDir, SlidesDir, WorksheetsDir, SourceMaterialsDir,
	AudioDir, ImagesDir, FinalDir, JSONDir, MarkdownDir,
}

// Dir represents the lessonkit home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.lessonkit).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// OutputsPath returns the root of the generated artifacts.
func (d *Dir) OutputsPath() string {
	return filepath.Join(d.path, OutputsDirName)
}

// Output returns the directory for one artifact kind, e.g. Output(SlidesDir).
func (d *Dir) Output(kind string) string {
	return filepath.Join(d.OutputsPath(), kind)
}

// CallLogPath returns the path of the LLM call log.
func (d *Dir) CallLogPath() string {
	return filepath.Join(d.path, LogsDirName, CallLogFileName)
}

// PromptsPath returns the default prompt override directory.
func (d *Dir) PromptsPath() string {
	return filepath.Join(d.path, "prompts")
}

// EnsureExists creates the home directory, every output directory and the
// logs directory.
func (d *Dir) EnsureExists() error {
	for _, kind := range outputDirs {
		if err := os.MkdirAll(d.Output(kind), 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", kind, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(d.CallLogPath()), 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
