package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// SystemConfigPath is read before the per-user file so a kiosk image can
// ship machine-wide defaults.
const SystemConfigPath = "/etc/winpin/config.yaml"

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

type Source struct {
	Kind   SourceKind
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML-path -> last writer source (file only)
	Files   []string          // all loaded files, in load order
}

// Load reads the system and user configuration files and returns the
// effective config.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources loads config and returns file-level sources for introspection.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPaths(SystemConfigPath, path)
}

// LoadFromPath loads a single config file. A missing file yields defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	return LoadFromPaths(path)
}

// LoadFromPaths merges the given files in order; later files win. Missing
// files are skipped.
func LoadFromPaths(paths ...string) (*LoadResult, error) {
	raw := RawConfig{}
	sources := map[string]Source{}
	var files []string

	for _, path := range paths {
		if path == "" {
			continue
		}
		l, ok, err := readLayer(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		raw = raw.merge(l.raw)
		for key, src := range l.sources {
			sources[key] = src
		}
		files = append(files, path)
	}

	cfg := BuildEffectiveConfig(raw)
	if err := cfg.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Path != "" {
			if src, ok := sources[verr.Path]; ok {
				verr.Source = src
			}
		}
		return nil, err
	}

	return &LoadResult{
		Config:  cfg,
		Sources: sources,
		Files:   files,
	}, nil
}

// layer is one file's contribution to the merged config.
type layer struct {
	path    string
	raw     RawConfig
	sources map[string]Source
}

// readLayer parses path strictly. ok is false when the file does not exist.
func readLayer(path string) (l layer, ok bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return layer{}, false, nil
	}
	if err != nil {
		return layer{}, false, fmt.Errorf("%s: failed to read: %w", path, err)
	}

	l = layer{path: path, sources: map[string]Source{}}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l.raw); err != nil && !errors.Is(err, io.EOF) {
		return layer{}, false, fmt.Errorf("%s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return layer{}, false, fmt.Errorf("%s: %w", path, err)
	}
	if len(doc.Content) > 0 {
		l.record(doc.Content[0], "")
	}
	return l, true, nil
}

// record notes the position of every mapping value under prefix.
func (l layer) record(node *yaml.Node, prefix string) {
	if node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		path := key.Value
		if prefix != "" {
			path = prefix + "." + path
		}
		l.sources[path] = Source{Kind: SourceFile, File: l.path, Line: val.Line, Column: val.Column}
		l.record(val, path)
	}
}
