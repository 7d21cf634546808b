package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Routing maps area and process to the mailboxes that own new requests.
type Routing struct {
	Fallback []string                       `yaml:"fallback"`
	Areas    map[string]map[string][]string `yaml:"areas"`
}

// LoadRouting reads the routing file at path. A missing file yields an empty
// routing so the service still boots in development.
func LoadRouting(path string) (*Routing, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Routing{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read routing file: %w", err)
	}
	return ParseRouting(data)
}

// ParseRouting decodes routing YAML.
func ParseRouting(data []byte) (*Routing, error) {
	var r Routing
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse routing: %w", err)
	}
	for area, processes := range r.Areas {
		for process, emails := range processes {
			for _, email := range emails {
				if !strings.Contains(email, "@") {
					return nil, fmt.Errorf("routing %s/%s: invalid email %q", area, process, email)
				}
			}
		}
	}
	return &r, nil
}

// Owners returns the mailboxes for area and process, or the fallback
// coordinators when none are configured.
func (r *Routing) Owners(area, process string) []string {
	if r == nil {
		return nil
	}
	if emails := r.Areas[area][process]; len(emails) > 0 {
		return append([]string(nil), emails...)
	}
	return append([]string(nil), r.Fallback...)
}
