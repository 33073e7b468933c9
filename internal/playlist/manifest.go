/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import (
	"encoding/json"
	"fmt"
	"os"
)

// ManifestEntry is one row of the remote playlist manifest.
type ManifestEntry struct {
	Filename     string `json:"filename"`
	Kind         Kind   `json:"kind"`
	DwellSeconds *int   `json:"dwellSeconds"`
}

// Manifest is the ordered wire format fetched from the object store and
// persisted locally so a restart can rebuild the same playlist.
type Manifest []ManifestEntry

// ParseManifest decodes a manifest from JSON bytes.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i, entry := range m {
		if entry.Filename == "" {
			return nil, fmt.Errorf("parse manifest: entry %d has no filename", i)
		}
		switch entry.Kind {
		case KindVideo, KindImage:
		default:
			return nil, fmt.Errorf("parse manifest: entry %d has unknown kind %q", i, entry.Kind)
		}
	}
	return m, nil
}

// LoadManifest reads and decodes a manifest file. A missing file yields a
// nil manifest, not an error.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// Save writes the manifest as indented JSON to path.
func (m Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
