package document

import (
	"path/filepath"

	"form95/config"
)

// Paths locates the template and the generated documents. Drafts and
// final documents share a filename but not a directory.
type Paths struct {
	Template  string
	OutputDir string
}

func PathsFromConfig(config config.Config) Paths {
	return Paths{Template: config.DocumentTemplatePath, OutputDir: config.DocumentOutputDir}
}

func (p Paths) PreviewPath(filename string) string {
	return filepath.Join(p.OutputDir, "drafts", filename)
}

func (p Paths) FinalPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}
