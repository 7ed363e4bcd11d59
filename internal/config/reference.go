package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"revir/internal/models"
)

// ReferenceData is the root of reference.yaml: the association's members,
// localities, species and cabins. Entries missing from the file are
// deactivated on sync, never deleted.
type ReferenceData struct {
	Members    []models.Member   `yaml:"members"`
	Localities []models.Locality `yaml:"localities"`
	Species    []models.Species  `yaml:"species"`
	Cabins     []models.Cabin    `yaml:"cabins"`
}

// LoadReference loads and validates reference data from a YAML file.
func LoadReference(path string) (*ReferenceData, error) {
	if path == "" {
		path = "configs/reference.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}

	var ref ReferenceData
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}

	for i := range ref.Members {
		if ref.Members[i].Role == "" {
			ref.Members[i].Role = models.RoleMember
		}
	}

	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("validate reference data: %w", err)
	}

	return &ref, nil
}

// Validate checks ids are positive and unique and names are present.
func (r *ReferenceData) Validate() error {
	seen := make(map[int64]bool)
	for i, m := range r.Members {
		if err := checkEntry("members", i, m.ID, m.DisplayName, seen); err != nil {
			return err
		}
		if !m.Role.Valid() {
			return fmt.Errorf("members[%d]: invalid role %q", i, m.Role)
		}
	}

	seen = make(map[int64]bool)
	for i, l := range r.Localities {
		if err := checkEntry("localities", i, l.ID, l.Name, seen); err != nil {
			return err
		}
	}

	seen = make(map[int64]bool)
	for i, s := range r.Species {
		if err := checkEntry("species", i, s.ID, s.Name, seen); err != nil {
			return err
		}
	}

	seen = make(map[int64]bool)
	for i, c := range r.Cabins {
		if err := checkEntry("cabins", i, c.ID, c.Name, seen); err != nil {
			return err
		}
	}
	return nil
}

func checkEntry(section string, idx int, id int64, name string, seen map[int64]bool) error {
	if id <= 0 {
		return fmt.Errorf("%s[%d]: id must be positive", section, idx)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s[%d]: name is required", section, idx)
	}
	if seen[id] {
		return fmt.Errorf("%s[%d]: duplicate id %d", section, idx, id)
	}
	seen[id] = true
	return nil
}
