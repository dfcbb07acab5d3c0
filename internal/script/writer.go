package script

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/scenecomposer/internal/system"
)

var scriptExtensions = []string{".yaml", ".yml", ".json"}

// Load reads a script from a YAML or JSON file and validates it
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes script data; ext selects the format, anything but .json is YAML.
// A bare list of sections is accepted as well as the {title, sections} form.
func Parse(data []byte, ext string) (*Script, error) {
	var s Script
	if strings.EqualFold(ext, ".json") {
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "[") {
			if err := json.Unmarshal(data, &s.Sections); err != nil {
				return nil, err
			}
			return &s, nil
		}
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return &s, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		if err := node.Content[0].Decode(&s.Sections); err != nil {
			return nil, err
		}
		return &s, nil
	}
	if err := node.Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Write stores a script as YAML or JSON depending on the file extension
func Write(s *Script, path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindLatest finds the most recent script file in dir
func FindLatest(dir string) (string, error) {
	path, err := system.FindLatestFile(dir, scriptExtensions...)
	if err != nil {
		return "", fmt.Errorf("find script: %w", err)
	}
	return path, nil
}

// List returns every script file in dir
func List(dir string) ([]string, error) {
	return system.ListFiles(dir, scriptExtensions...)
}

// IsScriptFile reports whether name carries a supported script extension
func IsScriptFile(name string) bool {
	return hasScriptExt(name)
}

func hasScriptExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range scriptExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
