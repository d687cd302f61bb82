package asset

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MetaExt is appended to an asset path to name its sidecar, which selects
// the loader and carries its settings:
//
//	loader: atlas
//	settings:
//	  format: png
const MetaExt = ".meta"

func MetaPath(assetPath string) string {
	return assetPath + MetaExt
}

type metaFile struct {
	Loader   string    `yaml:"loader"`
	Settings yaml.Node `yaml:"settings"`
}

func (m *metaFile) hasSettings() bool {
	return m.Settings.Kind != 0 && m.Settings.Tag != "!!null"
}

type metaOut struct {
	Loader   string `yaml:"loader"`
	Settings any    `yaml:"settings,omitempty"`
}

func encodeMeta(loader string, settings any) ([]byte, error) {
	data, err := yaml.Marshal(metaOut{Loader: loader, Settings: settings})
	if err != nil {
		return nil, fmt.Errorf("libatlas: encode meta: %w", err)
	}
	return data, nil
}

func decodeMeta(data []byte) (*metaFile, error) {
	var m metaFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: meta: %w", ErrConfigParse, err)
	}
	if m.Loader == "" {
		return nil, fmt.Errorf("%w: meta: missing loader", ErrConfigParse)
	}
	return &m, nil
}
