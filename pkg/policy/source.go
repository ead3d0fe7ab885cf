package policy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Source produces a policy snapshot.
type Source interface {
	// Name identifies the source in logs and load failures.
	Name() string

	// Load reads and validates the policy.
	Load(ctx context.Context) (*Snapshot, error)
}

// Document is the on-disk policy layout.
//
//	version: "2.1"
//	global_settings:
//	  enforcement_mode: blocking
//	  allowed_model_families: ["gpt-4*", "claude-*"]
//	data_rules:
//	  ssn: {sensitivity: CRITICAL, action: BLOCK}
//	  default: {sensitivity: MEDIUM, action: REDACT}
type Document struct {
	Version        string                  `yaml:"version"`
	GlobalSettings DocumentSettings        `yaml:"global_settings"`
	DataRules      map[string]DocumentRule `yaml:"data_rules"`
}

// DocumentSettings is the global_settings block.
type DocumentSettings struct {
	EnforcementMode      string   `yaml:"enforcement_mode"`
	AllowedModelFamilies []string `yaml:"allowed_model_families"`
}

// DocumentRule is one data_rules entry.
type DocumentRule struct {
	Sensitivity string `yaml:"sensitivity"`
	Action      string `yaml:"action"`
}

// Compile validates the document and builds a snapshot. When the document
// carries no version, fallbackVersion is used.
func (d *Document) Compile(fallbackVersion string) (*Snapshot, error) {
	mode, err := ParseMode(d.GlobalSettings.EnforcementMode)
	if err != nil {
		return nil, &ValidationError{Field: "global_settings.enforcement_mode", Message: err.Error()}
	}

	names := make([]string, 0, len(d.DataRules))
	for name := range d.DataRules {
		names = append(names, name)
	}
	sort.Strings(names)

	rules := make([]Rule, 0, len(names))
	for _, name := range names {
		dr := d.DataRules[name]
		field := "data_rules." + name

		sens := SensitivityUnknown
		if dr.Sensitivity != "" {
			if sens, err = ParseSensitivity(dr.Sensitivity); err != nil {
				return nil, &ValidationError{Field: field + ".sensitivity", Message: err.Error()}
			}
		}
		action := ActionRedact
		if dr.Action != "" {
			if action, err = ParseAction(dr.Action); err != nil {
				return nil, &ValidationError{Field: field + ".action", Message: err.Error()}
			}
		}
		rules = append(rules, Rule{Detector: name, Sensitivity: sens, Action: action})
	}

	version := d.Version
	if version == "" {
		version = fallbackVersion
	}

	return NewSnapshot(version, Settings{
		EnforcementMode:      mode,
		AllowedModelPatterns: d.GlobalSettings.AllowedModelFamilies,
	}, rules), nil
}

// ParseDocument decodes a YAML policy and compiles it. Documents without an
// explicit version are versioned by a content hash.
func ParseDocument(data []byte) (*Snapshot, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	return doc.Compile(contentVersion(data))
}

func contentVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])[:12]
}

// FileSource loads a policy from a YAML file on disk.
type FileSource struct {
	path string
}

// NewFileSource creates a new file-based policy source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.path }

// Path returns the watched file path.
func (s *FileSource) Path() string { return s.path }

// Load reads and compiles the policy file.
func (s *FileSource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %q: %w", s.path, err)
	}
	snap, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("policy file %q: %w", s.path, err)
	}
	return snap, nil
}

// MemorySource serves a document held in memory.
type MemorySource struct {
	Doc Document
}

// Name returns "memory".
func (s *MemorySource) Name() string { return "memory" }

// Load compiles the in-memory document.
func (s *MemorySource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Doc.Compile("memory")
}
