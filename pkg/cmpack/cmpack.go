// Package cmpack builds Content Manager-compatible car packs.
//
// It zips car content directories and emits a content.json manifest that
// the server's content-distribution feature serves to game clients, which
// then download car packs directly from the server.
package cmpack

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Entry describes one packaged car in the manifest.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	Type        string `json:"type"`
}

// Manifest is the content.json document served to clients.
type Manifest struct {
	Version string  `json:"version"`
	Content []Entry `json:"content"`
}

// ManifestVersion is the manifest schema version clients expect.
const ManifestVersion = "1.0"

// uiCar is the slice of a car's ui/ui_car.json this package reads.
type uiCar struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
}

// CreateCarZip zips one car directory into outputDir and returns its
// manifest entry. Archive paths are relative to the car directory's
// parent, so the zip extracts to <car_name>/... as the game expects.
func CreateCarZip(carDir, outputDir string) (Entry, error) {
	carName := filepath.Base(filepath.Clean(carDir))
	zipPath := filepath.Join(outputDir, carName+".zip")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(zipPath)
	if err != nil {
		return Entry{}, fmt.Errorf("create zip: %w", err)
	}

	zw := zip.NewWriter(f)
	parent := filepath.Dir(filepath.Clean(carDir))

	walkErr := filepath.WalkDir(carDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, src)
		_ = src.Close()
		return err
	})
	if walkErr != nil {
		_ = zw.Close()
		_ = f.Close()
		_ = os.Remove(zipPath)
		return Entry{}, fmt.Errorf("zip %s: %w", carName, walkErr)
	}

	if err := zw.Close(); err != nil {
		_ = f.Close()
		return Entry{}, fmt.Errorf("zip %s: %w", carName, err)
	}
	if err := f.Close(); err != nil {
		return Entry{}, fmt.Errorf("zip %s: %w", carName, err)
	}

	st, err := os.Stat(zipPath)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:   carName,
		Name: carName,
		URL:  "/cm_content/cars/" + carName + ".zip",
		Size: st.Size(),
		Type: "car",
	}

	// Car metadata is optional; a malformed ui_car.json only loses the
	// display fields.
	if meta, err := readUICar(filepath.Join(carDir, "ui", "ui_car.json")); err == nil {
		if meta.Name != "" {
			entry.Name = meta.Name
		}
		entry.Brand = meta.Brand
		entry.Description = meta.Description
	}

	return entry, nil
}

func readUICar(path string) (uiCar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return uiCar{}, err
	}
	var meta uiCar
	if err := json.Unmarshal(data, &meta); err != nil {
		return uiCar{}, err
	}
	return meta, nil
}

// Batch zips every subdirectory of root whose name matches any of the
// include patterns (doublestar globs). Empty includes matches everything.
func Batch(root, outputDir string, includes []string) ([]Entry, error) {
	for _, pattern := range includes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
	}

	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		if !matchesAny(d.Name(), includes) {
			continue
		}
		entry, err := CreateCarZip(filepath.Join(root, d.Name()), outputDir)
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func matchesAny(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// WriteManifest writes the content.json manifest for the packaged cars.
func WriteManifest(entries []Entry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	m := Manifest{Version: ManifestVersion, Content: entries}
	if m.Content == nil {
		m.Content = []Entry{}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadManifest reads a content.json manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %q", m.Version)
	}
	return &m, nil
}
