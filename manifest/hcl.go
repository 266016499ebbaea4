package manifest

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// HCL schema:
//
//	pipeline "smoke" {
//	  vars {
//	    greeting = "hello"
//	  }
//	  call "printer" {
//	    as      = "greet"
//	    returns = ["printed"]
//	    require {
//	      point  = "greeting"
//	      period = "last"
//	    }
//	  }
//	}
type hclRoot struct {
	Pipelines []hclPipeline `hcl:"pipeline,block"`
}

type hclPipeline struct {
	Name  string    `hcl:"name,label"`
	Vars  *hclVars  `hcl:"vars,block"`
	Calls []hclCall `hcl:"call,block"`
}

type hclVars struct {
	Body hcl.Body `hcl:",remain"`
}

type hclCall struct {
	Handler  string       `hcl:"handler,label"`
	Alias    string       `hcl:"as,optional"`
	Returns  []string     `hcl:"returns,optional"`
	Requires []hclRequire `hcl:"require,block"`
}

type hclRequire struct {
	Point  string   `hcl:"point"`
	Name   string   `hcl:"name,optional"`
	Period string   `hcl:"period,optional"`
	After  bool     `hcl:"after,optional"`
	Attrs  []string `hcl:"attr,optional"`
	Items  []string `hcl:"item,optional"`
}

// ParseHCL parses one HCL manifest source into its pipeline documents.
func ParseHCL(filename string, src []byte) ([]*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", filename, diags)
	}

	var root hclRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %w", filename, diags)
	}

	docs := make([]*Document, 0, len(root.Pipelines))
	for _, p := range root.Pipelines {
		doc := &Document{Name: p.Name}
		if p.Vars != nil {
			vars, err := decodeVars(p.Vars.Body)
			if err != nil {
				return nil, fmt.Errorf("pipeline %q: %w", p.Name, err)
			}
			doc.Vars = vars
		}
		for _, c := range p.Calls {
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
		docs = append(docs, doc)
	}
	return docs, nil
}

// decodeVars evaluates the vars block attributes as literal expressions and
// converts them to native Go seeds, sorted by name for determinism.
func decodeVars(body hcl.Body) ([]Var, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode vars: %w", diags)
	}
	vars := make([]Var, 0, len(attrs))
	for name, attr := range attrs {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluate var %q: %w", name, diags)
		}
		native, err := ctyToNative(value)
		if err != nil {
			return nil, fmt.Errorf("var %q: %w", name, err)
		}
		vars = append(vars, Var{Name: name, Value: native})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars, nil
}
