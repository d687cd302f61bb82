// Package descriptor parses atlas build descriptors: the ordered list of
// textures to pack plus packing options.
//
// Descriptors are authored as HCL, YAML or JSONC (JSON with comments and
// trailing commas):
//
//	# hero.atlas.hcl
//	textures = concat(
//	  ["sprites/hero.png"],
//	  formatlist("sprites/run_%02d.png", range(4)),
//	)
//	padding  = 1
//	max_size = 2048
//
// HCL expressions may call a small set of string and list functions and read
// the variable dir, the directory of the descriptor.
package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/tidwall/jsonc"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"gopkg.in/yaml.v3"

	"github.com/eak1mov/go-libatlas/asset"
)

var ErrConfigParse = asset.ErrConfigParse

// Syntax of a descriptor file.
type Syntax int

const (
	HCL Syntax = iota
	YAML
	JSONC
)

// Extensions maps descriptor file extensions to their syntax.
var Extensions = map[string]Syntax{
	"atlas.hcl":   HCL,
	"atlas.yaml":  YAML,
	"atlas.yml":   YAML,
	"atlas.json":  JSONC,
	"atlas.jsonc": JSONC,
}

// Descriptor lists the textures of an atlas in index order.
type Descriptor struct {
	Textures []string `hcl:"textures" yaml:"textures" json:"textures"`
	Padding  uint32   `hcl:"padding,optional" yaml:"padding" json:"padding"`
	MaxSize  uint32   `hcl:"max_size,optional" yaml:"max_size" json:"max_size"`
}

// SyntaxForPath returns the syntax of the descriptor at assetPath.
func SyntaxForPath(assetPath string) (Syntax, bool) {
	lower := strings.ToLower(assetPath)
	for ext, syntax := range Extensions {
		if strings.HasSuffix(lower, "."+ext) {
			return syntax, true
		}
	}
	return 0, false
}

// Parse decodes a descriptor read from assetPath. Errors wrap
// ErrConfigParse.
func Parse(assetPath string, data []byte) (*Descriptor, error) {
	syntax, ok := SyntaxForPath(assetPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s: unknown descriptor extension", ErrConfigParse, assetPath)
	}
	d, err := ParseSyntax(assetPath, data, syntax)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigParse, assetPath, err)
	}
	return d, nil
}

// ParseSyntax decodes data with the given syntax. The errors are not
// wrapped.
func ParseSyntax(assetPath string, data []byte, syntax Syntax) (*Descriptor, error) {
	var d Descriptor
	var err error
	switch syntax {
	case HCL:
		err = parseHCL(assetPath, data, &d)
	case YAML:
		err = parseYAML(data, &d)
	case JSONC:
		err = parseJSONC(data, &d)
	default:
		err = fmt.Errorf("unknown syntax %d", syntax)
	}
	if err != nil {
		return nil, err
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Descriptor) validate() error {
	for i, t := range d.Textures {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("texture %d: empty path", i)
		}
	}
	return nil
}

var functions = map[string]function.Function{
	"concat":     stdlib.ConcatFunc,
	"format":     stdlib.FormatFunc,
	"formatlist": stdlib.FormatListFunc,
	"join":       stdlib.JoinFunc,
	"lower":      stdlib.LowerFunc,
	"range":      stdlib.RangeFunc,
	"split":      stdlib.SplitFunc,
	"trimprefix": stdlib.TrimPrefixFunc,
	"trimsuffix": stdlib.TrimSuffixFunc,
	"upper":      stdlib.UpperFunc,
}

func evalContext(assetPath string) *hcl.EvalContext {
	dir := path.Dir(assetPath)
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"dir": cty.StringVal(dir)},
		Functions: functions,
	}
}

func parseHCL(assetPath string, data []byte, d *Descriptor) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, assetPath)
	if diags.HasErrors() {
		return diags
	}
	if diags := gohcl.DecodeBody(file.Body, evalContext(assetPath), d); diags.HasErrors() {
		return diags
	}
	return nil
}

func parseYAML(data []byte, d *Descriptor) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(d); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty descriptor")
		}
		return err
	}
	return nil
}

func parseJSONC(data []byte, d *Descriptor) error {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	return dec.Decode(d)
}
