package renderer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteSequence writes seq as indented JSON, or YAML when path ends in .yaml/.yml
func WriteSequence(seq Sequence, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(seq)
	} else {
		data, err = json.MarshalIndent(seq, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal sequence: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// ReadSequence reads a sequence written by WriteSequence
func ReadSequence(path string) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seq Sequence
	if isYAML(path) {
		err = yaml.Unmarshal(data, &seq)
	} else {
		err = json.Unmarshal(data, &seq)
	}
	if err != nil {
		return nil, fmt.Errorf("parse sequence %s: %w", path, err)
	}
	return &seq, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
