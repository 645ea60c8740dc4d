// Package knowledge maps student profile attributes to adaptation rules.
package knowledge

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/lessonkit/internal/failure"
)

// Base is the static rule table: attribute -> value -> rules.
type Base map[string]map[string][]string

// ProfileValue is a single attribute value or a list of them.
type ProfileValue []string

// UnmarshalYAML accepts a scalar or a sequence. YAML is a superset of JSON,
// so this also covers JSON profiles decoded with yaml.v3.
func (v *ProfileValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = ProfileValue{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*v = items
		return nil
	default:
		return fmt.Errorf("profile value must be a string or list of strings (line %d)", node.Line)
	}
}

// UnmarshalJSON accepts a JSON string or array of strings.
func (v *ProfileValue) UnmarshalJSON(b []byte) error {
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return err
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		return v.UnmarshalYAML(node.Content[0])
	}
	return v.UnmarshalYAML(&node)
}

// Profile maps attribute names such as "Dominant Language" to values.
type Profile map[string]ProfileValue

// Clone returns a deep copy so the caller's profile cannot change mid-run.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = append(ProfileValue(nil), v...)
	}
	return out
}

// Attributes returns the profile's attribute names in sorted order.
func (p Profile) Attributes() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extract collects every rule keyed under an attribute/value the profile
// exhibits. Each element of a list value contributes independently. Unknown
// attributes and values contribute nothing. Duplicates are kept; cleaning
// removes them later.
func Extract(profile Profile, kb Base) []string {
	var rules []string
	for _, attr := range profile.Attributes() {
		values, ok := kb[attr]
		if !ok {
			continue
		}
		for _, value := range profile[attr] {
			rules = append(rules, values[value]...)
		}
	}
	return rules
}

// ErrEmptyBase is returned for a knowledge base file with no attributes.
var ErrEmptyBase = errors.New("knowledge base has no attributes")

// Load reads a knowledge base from a JSON or YAML file. A missing, unreadable
// or malformed file is a configuration error.
func Load(path string) (Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.Configuration("knowledge-base", fmt.Errorf("read %s: %w", path, err))
	}
	var kb Base
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, failure.Configuration("knowledge-base", fmt.Errorf("decode %s: %w", path, err))
	}
	if len(kb) == 0 {
		return nil, failure.Configuration("knowledge-base", fmt.Errorf("%s: %w", path, ErrEmptyBase))
	}
	return kb, nil
}

// LoadProfile reads a student profile from a JSON or YAML file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}
	return p, nil
}

// Extractor loads the knowledge base from disk on each call so edits to the
// file take effect without a restart.
type Extractor struct {
	Path string
}

// Extract loads the base and extracts the profile's rules.
func (e Extractor) Extract(profile Profile) ([]string, error) {
	kb, err := Load(e.Path)
	if err != nil {
		return nil, err
	}
	return Extract(profile, kb), nil
}
