package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "go.yaml.in/yaml/v3"
)

// LoadFiles reads recipes from every path, in order.
func LoadFiles(paths ...string) ([]Recipe, error) {
	var out []Recipe
	for _, p := range paths {
		rs, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

// LoadFile reads recipes from a .json, .yaml/.yml or .toml file. The file
// may hold one recipe, a list of recipes, or {"recipes": [...]}.
func LoadFile(path string) ([]Recipe, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rs, err := Decode(filepath.Ext(path), b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Decode parses recipe data in the format named by ext (".json", ".yaml",
// ".yml", ".toml"). Unknown fields are rejected.
func Decode(ext string, data []byte) ([]Recipe, error) {
	var v any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	case ".toml":
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("toml unmarshal: %w", err)
		}
		v = m
	case ".json", "":
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported recipe file type %q", ext)
	}

	if v == nil {
		return nil, nil
	}
	v = normalize(v)
	if m, ok := v.(map[string]any); ok && len(m) == 1 {
		if list, ok := m["recipes"]; ok {
			v = list
		}
	}

	jb, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-encode: %w", err)
	}

	if _, isList := v.([]any); isList {
		var rs []Recipe
		if err := decodeStrict(jb, &rs); err != nil {
			return nil, err
		}
		return rs, nil
	}
	var r Recipe
	if err := decodeStrict(jb, &r); err != nil {
		return nil, err
	}
	return []Recipe{r}, nil
}

func decodeStrict(b []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("trailing data after recipe")
	}
	return nil
}

// normalize makes every map key a string so YAML values can be re-encoded
// as JSON.
func normalize(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalize(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalize(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	default:
		return in
	}
}
