package pipeline

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/tmc-data-etl/internal/domain"
)

// DiscoverFiles walks the input folder for survey workbooks. A file joins
// the batch when it has a spreadsheet extension and its name carries a
// numeric location ID prefix; anything else is logged and skipped, never
// fatal. The result is sorted so batches are processed in a stable order.
func DiscoverFiles(dir string, logger *slog.Logger) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".xls" && ext != ".xlsx" {
			return nil
		}
		if _, ok := domain.ParseLocationID(path); !ok {
			logger.Warn("skipping file without a numeric location ID prefix", "file", d.Name())
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan input folder %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}
