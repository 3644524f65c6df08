// Package sink writes chart and statistics documents to JSON files.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"modelcharts/internal/models"
)

// ErrTargetIsDir is returned when an output path names a directory.
var ErrTargetIsDir = errors.New("output target is a directory")

// JSONSink writes data.json and stat.json. A failed write leaves both targets
// as they were before the call.
type JSONSink struct {
	dataPath string
	statPath string
	pretty   bool
}

// NewJSONSink creates a sink writing the chart to dataPath and the statistics to statPath.
func NewJSONSink(dataPath, statPath string, pretty bool) *JSONSink {
	return &JSONSink{
		dataPath: dataPath,
		statPath: statPath,
		pretty:   pretty,
	}
}

// Write stages both documents next to their targets and renames them into place.
func (s *JSONSink) Write(ctx context.Context, doc *models.ChartDocument, report models.StatisticsReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if report == nil {
		report = models.StatisticsReport{}
	}

	dataTmp, err := s.stage(s.dataPath, doc)
	if err != nil {
		return fmt.Errorf("failed to stage chart document: %w", err)
	}

	statTmp, err := s.stage(s.statPath, report)
	if err != nil {
		_ = os.Remove(dataTmp)

		return fmt.Errorf("failed to stage statistics document: %w", err)
	}

	backup, err := s.setAside(s.dataPath)
	if err != nil {
		_ = os.Remove(dataTmp)
		_ = os.Remove(statTmp)

		return err
	}

	if err := os.Rename(dataTmp, s.dataPath); err != nil {
		_ = os.Remove(dataTmp)
		_ = os.Remove(statTmp)
		restore(backup, s.dataPath)

		return fmt.Errorf("failed to write %s: %w", s.dataPath, err)
	}

	if err := os.Rename(statTmp, s.statPath); err != nil {
		_ = os.Remove(statTmp)
		restore(backup, s.dataPath)

		return fmt.Errorf("failed to write %s: %w", s.statPath, err)
	}

	if backup != "" {
		_ = os.Remove(backup)
	}

	return nil
}

// Paths returns the target file paths.
func (s *JSONSink) Paths() (dataPath, statPath string) {
	return s.dataPath, s.statPath
}

func (s *JSONSink) stage(path string, v any) (string, error) {
	data, err := Encode(v, s.pretty)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	return tmp, nil
}

// setAside moves an existing file to a hidden backup so a failed write can
// put it back. It returns "" when there is nothing to keep.
func (s *JSONSink) setAside(path string) (string, error) {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return "", nil
	}

	if err == nil && info.IsDir() {
		return "", fmt.Errorf("failed to write %s: %w", path, ErrTargetIsDir)
	}

	backup := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".bak")
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", path, err)
	}

	return backup, nil
}

// restore puts a backup in place of path, or removes path when there was none.
func restore(backup, path string) {
	if backup == "" {
		_ = os.Remove(path)

		return
	}

	_ = os.Rename(backup, path)
}

// Encode renders v as JSON without HTML escaping, indented when pretty is set.
func Encode(v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if pretty {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}

	return buf.Bytes(), nil
}
