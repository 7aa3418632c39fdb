package rig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseData decodes a YAML rig description.
//
// Parameters:
//   - raw: the YAML document
//
// Returns:
//   - *SkeletonData: the decoded data
//   - error: error if the document is not valid YAML for SkeletonData
func ParseData(raw []byte) (*SkeletonData, error) {
	var data SkeletonData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse rig data: %w", err)
	}
	return &data, nil
}

// LoadData reads and decodes a YAML rig description from disk.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - *SkeletonData: the decoded data
//   - error: error if the file cannot be read or decoded
func LoadData(path string) (*SkeletonData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rig data %s: %w", path, err)
	}
	data, err := ParseData(raw)
	if err != nil {
		return nil, fmt.Errorf("load rig data %s: %w", path, err)
	}
	return data, nil
}
