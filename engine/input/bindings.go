package input

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// keyField decodes either a numeric glfw code or a key name. It is always
// written back as the numeric code.
type keyField Key

func (k *keyField) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: key must be a scalar", node.Line)
	}
	key, err := ParseKey(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*k = keyField(key)
	return nil
}

func (k keyField) MarshalYAML() (interface{}, error) {
	return int(k), nil
}

// binding is one entry of the bindings file.
type binding struct {
	Type     string    `yaml:"type"`
	Name     string    `yaml:"name"`
	Keycode  *keyField `yaml:"keycode,omitempty"`
	Positive *keyField `yaml:"positive,omitempty"`
	Negative *keyField `yaml:"negative,omitempty"`
}

// LoadBindings reads a bindings file from disk. See LoadBindingsData.
func (s *System) LoadBindings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read bindings %s: %w", path, err)
	}
	return s.LoadBindingsData(data)
}

// LoadBindingsData adds or replaces the bindings described by data, a YAML
// sequence of button and axis entries. Malformed entries are logged and
// skipped.
func (s *System) LoadBindingsData(data []byte) error {
	var entries []binding
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse bindings: %w", err)
	}
	for _, e := range entries {
		if e.Name == "" {
			s.logger.Error("binding without a name", "type", e.Type)
			continue
		}
		switch e.Type {
		case "button":
			if e.Keycode == nil {
				s.logger.Error("button binding without keycode", "name", e.Name)
				continue
			}
			s.BindButton(e.Name, Key(*e.Keycode))
		case "axis":
			if e.Positive == nil || e.Negative == nil {
				s.logger.Error("axis binding needs positive and negative keys", "name", e.Name)
				continue
			}
			s.BindAxis(e.Name, Key(*e.Positive), Key(*e.Negative))
		default:
			s.logger.Error("unknown binding type", "type", e.Type, "name", e.Name)
		}
	}
	s.logger.Debug("bindings loaded", "buttons", len(s.buttons), "axes", len(s.axes))
	return nil
}

// SaveBindings writes every binding as numeric key codes, buttons first.
func (s *System) SaveBindings(path string) error {
	data, err := s.MarshalBindings()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bindings %s: %w", path, err)
	}
	return nil
}

func (s *System) MarshalBindings() ([]byte, error) {
	entries := make([]binding, 0, len(s.buttons)+len(s.axes))
	for _, name := range sortedKeys(s.buttons) {
		key := keyField(s.buttons[name])
		entries = append(entries, binding{Type: "button", Name: name, Keycode: &key})
	}
	for _, name := range sortedKeys(s.axes) {
		axis := s.axes[name]
		positive, negative := keyField(axis.positive), keyField(axis.negative)
		entries = append(entries, binding{Type: "axis", Name: name, Positive: &positive, Negative: &negative})
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode bindings: %w", err)
	}
	return data, nil
}
