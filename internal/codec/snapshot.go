// Package codec encodes session snapshots for the persistent backends.
package codec

import (
	"fmt"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/bytedance/sonic"
)

// api mirrors encoding/json behavior (sorted keys, HTML escaping) so stored
// snapshots stay byte-compatible with other JSON tooling.
var api = sonic.ConfigStd

// Marshal encodes a snapshot as JSON.
func Marshal(snap domain.Snapshot) ([]byte, error) {
	if snap == nil {
		snap = domain.NewSnapshot()
	}
	data, err := api.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// MarshalIndent encodes a snapshot as indented JSON, for files meant to be read by people.
func MarshalIndent(snap domain.Snapshot) ([]byte, error) {
	if snap == nil {
		snap = domain.NewSnapshot()
	}
	data, err := api.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a JSON snapshot. Nested objects come back as map[string]any
// and numbers as float64.
func Unmarshal(data []byte) (domain.Snapshot, error) {
	var raw map[string]any
	if err := api.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if raw == nil {
		raw = make(map[string]any)
	}
	return domain.Snapshot(raw), nil
}
