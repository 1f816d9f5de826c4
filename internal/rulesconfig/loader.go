package rulesconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML rule file on top of Default.
// Unknown fields fail immediately so typos never fall back to defaults silently.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML rule data on top of Default and validates the result
func Parse(data []byte) (*Rules, error) {
	rules := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(rules); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode rules: %w", err)
	}

	if err := Validate(rules); err != nil {
		return nil, err
	}

	return rules, nil
}

// LoadOrDefault returns Default when path is empty
func LoadOrDefault(path string) (*Rules, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Hash generates SHA256 hash from Rules (canonical JSON)
// struct (not map) keeps the field order and therefore the hash stable
func Hash(rules *Rules) (string, error) {
	jsonBytes, err := json.Marshal(rules)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
