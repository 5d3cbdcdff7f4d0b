package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ShagReza/DataCuration-EASMS/internal/config"
)

// Supported dataset extensions.
var datasetExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// DatasetFile represents a dataset table found in an input directory
type DatasetFile struct {
	Path    string
	Name    string // file stem, used as the dataset name
	Ext     string
	Size    int64
	ModTime time.Time
}

// Discovery finds dataset tables relative to a base directory
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// Discover lists the dataset tables directly inside dir.
func Discover(dir string) ([]DatasetFile, error) {
	return NewDiscovery("").FindDatasets(dir)
}

// FindDatasets lists .csv and .xlsx files in dir sorted by name. Office lock
// files and files produced by earlier runs are skipped. When a stem exists in
// both formats the .csv file wins, since score runs rewrite inputs as CSV.
func (d *Discovery) FindDatasets(dir string) ([]DatasetFile, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	byName := make(map[string]DatasetFile)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !datasetExtensions[ext] || config.IsGeneratedName(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		f := DatasetFile{
			Path:    filepath.Join(fullPath, name),
			Name:    config.Stem(name),
			Ext:     ext,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if prev, ok := byName[f.Name]; ok && prev.Ext == ".csv" {
			continue
		}
		byName[f.Name] = f
	}

	files := make([]DatasetFile, 0, len(byName))
	for _, f := range byName {
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
