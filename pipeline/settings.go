// Package pipeline is the decompilation driver (spec §4.F "Ordering" /
// §7): it owns the fixed pass order, fixpoint re-running of idempotent
// passes, per-pass Step observability records, the settings a user can
// toggle, and the structured error taxonomy a failing pass or a malformed
// input surfaces. Settings are loaded from YAML via gopkg.in/yaml.v3,
// mirroring the teacher's own config-loading style (strict field
// validation, unknown keys rejected) rather than hand-rolled flag parsing.
package pipeline

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/viant/ilcore/transform"
)

// Settings is the full set of recognized boolean toggles (spec §3). Each
// corresponds 1:1 to a named YAML key; UnmarshalYAML rejects any key it
// does not recognize rather than silently ignoring it.
type Settings struct {
	ControlFlowStructuring  bool `yaml:"controlFlowStructuring"`
	LockStatement           bool `yaml:"lockStatement"`
	UsingStatement          bool `yaml:"usingStatement"`
	SwitchStatementOnString bool `yaml:"switchStatementOnString"`
	ForEachStatement        bool `yaml:"forEachStatement"`
	NullPropagation         bool `yaml:"nullPropagation"`
	Iterators               bool `yaml:"iterators"`
	AsyncAwait              bool `yaml:"asyncAwait"`
	Tuples                  bool `yaml:"tuples"`
	ExpandMemberDefinitions bool `yaml:"expandMemberDefinitions"`
	ShowDebugInfo           bool `yaml:"showDebugInfo"`
	ShowXmlDocumentation    bool `yaml:"showXmlDocumentation"`
	HideEmptyMetadataTables bool `yaml:"hideEmptyMetadataTables"`
	DelegateConstruction    bool `yaml:"delegateConstruction"`
	InlinedInitializer      bool `yaml:"inlinedInitializer"`
	StringConcat            bool `yaml:"stringConcat"`
}

// DefaultSettings returns the spec §3 documented defaults.
func DefaultSettings() Settings {
	return Settings{
		ControlFlowStructuring:  true,
		LockStatement:           true,
		UsingStatement:          true,
		SwitchStatementOnString: true,
		ForEachStatement:        true,
		NullPropagation:         true,
		Iterators:               true,
		AsyncAwait:              true,
		Tuples:                  true,
		ExpandMemberDefinitions: false,
		ShowDebugInfo:           false,
		ShowXmlDocumentation:    false,
		HideEmptyMetadataTables: true,
		DelegateConstruction:    true,
		InlinedInitializer:      true,
		StringConcat:            true,
	}
}

// transformSettings projects the fields transform.Pass implementations
// read out of Settings.
func (s Settings) transformSettings() transform.Settings {
	return transform.Settings{
		ControlFlowStructuring:  s.ControlFlowStructuring,
		LockStatement:           s.LockStatement,
		UsingStatement:          s.UsingStatement,
		SwitchStatementOnString: s.SwitchStatementOnString,
		ForEachStatement:        s.ForEachStatement,
		NullPropagation:         s.NullPropagation,
		Tuples:                  s.Tuples,
		DelegateConstruction:    s.DelegateConstruction,
		InlinedInitializer:      s.InlinedInitializer,
		StringConcat:            s.StringConcat,
	}
}

var recognizedSettingKeys = map[string]bool{
	"controlFlowStructuring": true,
	"lockStatement": true, "usingStatement": true, "switchStatementOnString": true,
	"forEachStatement": true, "nullPropagation": true, "iterators": true,
	"asyncAwait": true, "tuples": true, "expandMemberDefinitions": true,
	"showDebugInfo": true, "showXmlDocumentation": true, "hideEmptyMetadataTables": true,
	"delegateConstruction": true, "inlinedInitializer": true, "stringConcat": true,
}

// UnmarshalYAML rejects any key not in recognizedSettingKeys, per spec §3:
// "Unknown settings are rejected at load time."
func (s *Settings) UnmarshalYAML(value *yaml.Node) error {
	type plain Settings
	var raw map[string]yaml.Node
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("pipeline: decoding settings: %w", err)
	}
	for key := range raw {
		if !recognizedSettingKeys[key] {
			return fmt.Errorf("pipeline: unrecognized setting %q", key)
		}
	}
	p := plain(*s)
	if err := value.Decode(&p); err != nil {
		return fmt.Errorf("pipeline: decoding settings: %w", err)
	}
	*s = Settings(p)
	return nil
}

// LoadSettings parses YAML-encoded settings, starting from DefaultSettings
// so an omitted key keeps its documented default rather than zeroing out.
func LoadSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if len(data) == 0 {
		return s, nil
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
