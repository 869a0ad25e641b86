// Package category discovers and refines the category vocabulary for a
// classification session. Discovery proposes categories from sample data;
// refinement reshapes an existing set from user feedback. Both return
// structured sets the classifier treats as its closed vocabulary.
package category

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is one entry of a session's classification vocabulary.
type Category struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Boundary    string   `json:"boundary"`
	Examples    []string `json:"examples,omitempty"`
}

// Set is an ordered category vocabulary.
type Set []Category

// Names returns the category names in order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// JSON marshals the set for storage in the category ledger.
func (s Set) JSON() (json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal categories: %w", err)
	}
	return data, nil
}

// SetFromJSON unmarshals a stored category snapshot.
func SetFromJSON(data json.RawMessage) (Set, error) {
	var s Set
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	return s, nil
}

// Validate checks that every category has a name and that names are unique
// ignoring case. Classification matches names case-insensitively, so two
// categories differing only in case would be indistinguishable.
func (s Set) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("category set is empty")
	}
	seen := make(map[string]bool, len(s))
	for i, c := range s {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("duplicate category name %q", c.Name)
		}
		seen[key] = true
	}
	return nil
}
