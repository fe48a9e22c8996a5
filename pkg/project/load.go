package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts both forms of an adopter reference:
//
//	whoUses:
//	  - cli                      # known name, resolved via UserLinks
//	  - name: acme
//	    link: https://acme.dev   # explicit reference
func (u *UserRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		u.Name = node.Value
		u.Link = ""
		return nil
	}

	var full struct {
		Name string `yaml:"name"`
		Link string `yaml:"link"`
	}
	if err := node.Decode(&full); err != nil {
		return err
	}
	u.Name = full.Name
	u.Link = full.Link
	return nil
}

// collectionFile is the on-disk shape of a project collection.
type collectionFile struct {
	Projects []Project `yaml:"projects"`
}

// Load reads a project collection from a YAML file.
func Load(path string) ([]Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read projects file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a project collection from YAML bytes. Both a top-level
// `projects:` list and a bare list of projects are accepted.
func Parse(data []byte) ([]Project, error) {
	var file collectionFile
	if err := yaml.Unmarshal(data, &file); err == nil && len(file.Projects) > 0 {
		return file.Projects, nil
	}

	var bare []Project
	if err := yaml.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("parse projects file: %w", err)
	}
	return bare, nil
}
