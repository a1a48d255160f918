package cli

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/agbru/pdcbench/internal/errors"
	"github.com/agbru/pdcbench/internal/experiment"
)

// LoadFiles reads the files to upload. Directories and unreadable paths are
// rejected before anything is sent.
func LoadFiles(paths []string) ([]experiment.UploadFile, error) {
	if len(paths) == 0 {
		return nil, apperrors.ValidationError{Field: "files", Message: "no files given"}
	}
	files := make([]experiment.UploadFile, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, apperrors.ValidationError{Field: "files", Message: fmt.Sprintf("%s is a directory", p)}
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, experiment.UploadFile{Name: filepath.Base(p), Content: content})
	}
	return files, nil
}
