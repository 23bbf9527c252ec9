package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/singleline/pkg/errors"
)

// =============================================================================
// Topology Serialization API
// =============================================================================

// ReadTopology decodes and validates a topology.
func ReadTopology(r io.Reader) (Topology, error) {
	var t Topology
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return Topology{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode topology")
	}
	if err := t.Validate(); err != nil {
		return Topology{}, err
	}
	return t, nil
}

// ReadTopologyFile reads a topology from a JSON file.
func ReadTopologyFile(path string) (Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Topology{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return Topology{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTopology(f)
}

// UnmarshalTopology decodes a topology from JSON bytes.
func UnmarshalTopology(data []byte) (Topology, error) {
	return ReadTopology(bytes.NewReader(data))
}

// MarshalTopology encodes a topology as compact JSON. The output is stable
// for a given topology and is used to derive cache keys.
func MarshalTopology(t Topology) ([]byte, error) {
	return json.Marshal(t)
}

// WriteTopologyFile writes a topology as indented JSON.
func WriteTopologyFile(t Topology, path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout and checks that the
// populated fields match its scope.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteLayout writes a Layout as indented JSON to w.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
