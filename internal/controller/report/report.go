// Package report reads findings reports: the list of files a set of
// findings refers to, in JSON or YAML.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/sourcesync/internal/models"
)

// Report is one findings report.
type Report struct {
	ID    string                 `json:"id" yaml:"id"`
	Files []models.FileReference `json:"files" yaml:"files"`
}

// Load reads the report at path. The format follows the extension: .yaml
// and .yml are YAML, anything else is JSON. A report without an id gets
// the file name as id.
func Load(path string) (*Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r *Report
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		r, err = ParseYAML(b)
	default:
		r, err = ParseJSON(b)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if r.ID == "" {
		r.ID = filepath.Base(path)
	}
	return r, nil
}

// ParseJSON decodes a JSON report. Unknown fields are rejected.
func ParseJSON(b []byte) (*Report, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()

	r := &Report{}
	if err := dec.Decode(r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return r, r.validate()
}

// ParseYAML decodes a YAML report. Unknown fields are rejected.
func ParseYAML(b []byte) (*Report, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	r := &Report{}
	if err := dec.Decode(r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return r, r.validate()
}

func (r *Report) validate() error {
	for i, f := range r.Files {
		if f.LogicalName == "" {
			return fmt.Errorf("file %d: empty logical_name", i)
		}
	}
	return nil
}
