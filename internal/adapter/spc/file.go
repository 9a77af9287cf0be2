package spc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
)

// FileSource reads report files saved from the archive, named the same way
// (<YYMMDD>_rpts_filtered.csv), from a local directory.
type FileSource struct {
	dir string
}

// NewFileSource creates a source over dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// FetchReports parses the file for date. A missing file is an empty day.
func (s *FileSource) FetchReports(_ context.Context, date string) (domain.Reports, error) {
	path := filepath.Join(s.dir, reportDay(date)+"_rpts_filtered.csv")
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewReports(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open reports %s: %w: %w", path, domain.ErrReportsUnavailable, err)
	}
	defer f.Close()

	reports, _, err := domain.ParseReports(f)
	if err != nil {
		return nil, fmt.Errorf("parse reports %s: %w", path, err)
	}
	return reports, nil
}
