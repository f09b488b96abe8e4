package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/immapolar/MiniPolar-HTML-CSS-JS-Minifier/build"
)

// Document is the on-disk form of a manifest.
type Document struct {
	BuildID     string        `json:"buildId" yaml:"buildId"`
	GeneratedAt time.Time     `json:"generatedAt" yaml:"generatedAt"`
	InputDir    string        `json:"inputDir" yaml:"inputDir"`
	OutputDir   string        `json:"outputDir" yaml:"outputDir"`
	Summary     build.Summary `json:"summary" yaml:"summary"`
	Files       []*Record     `json:"files" yaml:"files"`
}

// Document snapshots the manifest.
func (m *Manifest) Document(inputDir, outputDir string) Document {
	return Document{
		BuildID:     m.BuildID(),
		GeneratedAt: time.Now().UTC(),
		InputDir:    inputDir,
		OutputDir:   outputDir,
		Summary:     m.LastSummary(),
		Files:       m.All(),
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// WriteFile stores doc at path, as YAML for .yaml/.yml and JSON otherwise.
func WriteFile(path string, doc Document) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a manifest document written by WriteFile.
func ReadFile(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return doc, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return doc, nil
}
