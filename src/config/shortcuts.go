package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"screen-sniper/src/app"
	"screen-sniper/src/hotkey"
)

// shortcutEntry accepts either "Ctrl+Shift+2" or {keyCode: 19, modifiers: 3}.
type shortcutEntry hotkey.Shortcut

func (e *shortcutEntry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		sc, err := hotkey.ParseShortcut(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*e = shortcutEntry(sc)
		return nil
	}
	var sc hotkey.Shortcut
	if err := n.Decode(&sc); err != nil {
		return err
	}
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*e = shortcutEntry(sc)
	return nil
}

type shortcutFile struct {
	Shortcuts map[string]shortcutEntry `yaml:"shortcuts"`
}

// LoadShortcutFile reads an action → shortcut table. Unknown actions are an error.
func LoadShortcutFile(path string) (map[string]hotkey.Shortcut, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseShortcuts(data)
}

func ParseShortcuts(data []byte) (map[string]hotkey.Shortcut, error) {
	var f shortcutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse shortcut file: %w", err)
	}
	out := make(map[string]hotkey.Shortcut, len(f.Shortcuts))
	for action, sc := range f.Shortcuts {
		if !app.KnownAction(action) {
			return nil, fmt.Errorf("shortcut file: %w: %q", app.ErrUnknownAction, action)
		}
		out[action] = hotkey.Shortcut(sc)
	}
	return out, nil
}

// SaveShortcutFile writes shortcuts in the {keyCode, modifiers} form.
func SaveShortcutFile(path string, shortcuts map[string]hotkey.Shortcut) error {
	data, err := yaml.Marshal(struct {
		Shortcuts map[string]hotkey.Shortcut `yaml:"shortcuts"`
	}{shortcuts})
	if err != nil {
		return fmt.Errorf("encode shortcuts: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
