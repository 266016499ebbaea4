package manifest

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// YAML schema, mirroring the HCL one:
//
//	pipeline: smoke
//	vars:
//	  greeting: hello
//	calls:
//	  - handler: printer
//	    as: greet
//	    returns: [printed]
//	    requires:
//	      - point: greeting
//	        period: last
type yamlDocument struct {
	Pipeline string         `yaml:"pipeline"`
	Vars     map[string]any `yaml:"vars"`
	Calls    []yamlCall     `yaml:"calls"`
}

type yamlCall struct {
	Handler  string        `yaml:"handler"`
	Alias    string        `yaml:"as"`
	Returns  []string      `yaml:"returns"`
	Requires []yamlRequire `yaml:"requires"`
}

type yamlRequire struct {
	Point  string   `yaml:"point"`
	Name   string   `yaml:"name"`
	Period string   `yaml:"period"`
	After  bool     `yaml:"after"`
	Attrs  []string `yaml:"attr"`
	Items  []string `yaml:"item"`
}

// ParseYAML parses one YAML manifest source into its pipeline document.
func ParseYAML(filename string, src []byte) ([]*Document, error) {
	var raw yamlDocument
	if err := yaml.Unmarshal(src, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	doc := &Document{Name: raw.Pipeline}
	names := make([]string, 0, len(raw.Vars))
	for name := range raw.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Vars = append(doc.Vars, Var{Name: name, Value: raw.Vars[name]})
	}
	for _, c := range raw.Calls {
		call := Call{
			Handler: c.Handler,
			Alias:   c.Alias,
			Returns: c.Returns,
		}
		for _, q := range c.Requires {
			call.Requires = append(call.Requires, Require(q))
		}
		doc.Calls = append(doc.Calls, call)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return []*Document{doc}, nil
}
