// Package rules reads declarative constraint definitions from YAML and compiles them into
// constraints bound to a table.
//
// A rules file lists constraints by kind:
//
//	constraints:
//	  - name: city-present
//	    type: domain
//	    columns: [city]
//	    predicate:
//	      not_contains: "?"
//	  - name: zip-determines-city
//	    type: cfd
//	    determinant: [zip]
//	    dependent: [city]
//	    ignore_max: true
//	    when:
//	      - column: country
//	        equals: US
package rules

import (
	"fmt"
	"os"
	"regexp"

	"github.com/vitebski/dc4ds/internal/constraint"
	dcerrors "github.com/vitebski/dc4ds/internal/errors"
	"gopkg.in/yaml.v3"
)

// Rule kinds
const (
	TypeDomain = "domain"
	TypeCFD    = "cfd"
)

// File is a parsed rules document
type File struct {
	Constraints []Rule `yaml:"constraints"`
}

// Rule declares one constraint
type Rule struct {
	Name        string        `yaml:"name"`
	Type        string        `yaml:"type"`
	Columns     []string      `yaml:"columns"`
	Predicate   PredicateSpec `yaml:"predicate"`
	Determinant []string      `yaml:"determinant"`
	Dependent   []string      `yaml:"dependent"`
	IgnoreMax   bool          `yaml:"ignore_max"`
	When        []Condition   `yaml:"when"`
}

// PredicateSpec selects the named predicates a domain rule applies to its projection.
// Several entries combine with logical and.
type PredicateSpec struct {
	NotContains *string    `yaml:"not_contains"`
	NotEmpty    bool       `yaml:"not_empty"`
	OneOf       []string   `yaml:"one_of"`
	Matches     string     `yaml:"matches"`
	Numeric     bool       `yaml:"numeric"`
	Range       *RangeSpec `yaml:"range"`
	Ascending   bool       `yaml:"ascending"`
	Negate      bool       `yaml:"negate"`
}

// RangeSpec bounds numeric values, both ends inclusive
type RangeSpec struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Condition restricts the rows a CFD applies to by the value of one column
type Condition struct {
	Column    string   `yaml:"column"`
	Equals    *string  `yaml:"equals"`
	NotEquals *string  `yaml:"not_equals"`
	OneOf     []string `yaml:"one_of"`
	Matches   string   `yaml:"matches"`
}

// LoadFile reads and parses a rules file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dcerrors.NewSourceNotFoundError(path, err)
		}
		return nil, dcerrors.NewSourceReadError(path, err)
	}
	return Parse(data)
}

// Parse decodes a rules document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, invalid("", fmt.Sprintf("decoding rules: %v", err))
	}
	return &f, nil
}

// Compile builds the constraints of f, resolving conditions against t.
func (f *File) Compile(t constraint.Table) ([]constraint.Constraint, error) {
	constraints := make([]constraint.Constraint, 0, len(f.Constraints))
	for i, r := range f.Constraints {
		if r.Name == "" {
			r.Name = fmt.Sprintf("rule-%d", i+1)
		}
		c, err := r.compile(t)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, c)
	}
	return constraints, nil
}

func (r Rule) compile(t constraint.Table) (constraint.Constraint, error) {
	switch r.Type {
	case TypeDomain:
		if len(r.When) > 0 {
			return nil, invalid(r.Name, "conditions are only supported on cfd rules")
		}
		pred, err := r.Predicate.build(r.Name)
		if err != nil {
			return nil, err
		}
		dc, err := constraint.NewDomainConstraint(r.Columns, pred)
		if err != nil {
			return nil, err
		}
		dc.Label = r.Name
		return dc, nil

	case TypeCFD:
		applies, err := buildConditions(r.Name, r.When, t)
		if err != nil {
			return nil, err
		}
		cfd, err := constraint.NewConditionalFunctionalDependency(r.Determinant, r.Dependent, applies, r.IgnoreMax)
		if err != nil {
			return nil, err
		}
		cfd.Label = r.Name
		return cfd, nil

	default:
		return nil, invalid(r.Name, fmt.Sprintf("unknown rule type %q", r.Type))
	}
}

func (ps PredicateSpec) build(rule string) (constraint.Predicate, error) {
	var all constraint.All
	if ps.NotContains != nil {
		all = append(all, constraint.NotContains{Substr: *ps.NotContains})
	}
	if ps.NotEmpty {
		all = append(all, constraint.NotEmpty{})
	}
	if len(ps.OneOf) > 0 {
		all = append(all, constraint.NewOneOf(ps.OneOf...))
	}
	if ps.Matches != "" {
		re, err := regexp.Compile(ps.Matches)
		if err != nil {
			return nil, invalid(rule, fmt.Sprintf("bad pattern %q: %v", ps.Matches, err))
		}
		all = append(all, constraint.Matches{Pattern: re})
	}
	if ps.Numeric {
		all = append(all, constraint.Numeric{})
	}
	if ps.Range != nil {
		if ps.Range.Min > ps.Range.Max {
			return nil, invalid(rule, "range min exceeds max")
		}
		all = append(all, constraint.InRange{Min: ps.Range.Min, Max: ps.Range.Max})
	}
	if ps.Ascending {
		all = append(all, constraint.Ascending{})
	}

	if len(all) == 0 {
		return nil, invalid(rule, "domain rule needs a predicate")
	}

	var pred constraint.Predicate = all
	if len(all) == 1 {
		pred = all[0]
	}
	if ps.Negate {
		pred = constraint.Not{Inner: pred}
	}
	return pred, nil
}

func buildConditions(rule string, conds []Condition, t constraint.Table) (constraint.Predicate, error) {
	if len(conds) == 0 {
		return constraint.Always, nil
	}

	var all constraint.All
	for _, c := range conds {
		idx, ok := t.ColumnIndex(c.Column)
		if !ok {
			return nil, dcerrors.UnknownColumn(c.Column).WithDetail("rule", rule)
		}

		before := len(all)
		if c.Equals != nil {
			all = append(all, constraint.ColumnEquals{Index: idx, Value: *c.Equals})
		}
		if c.NotEquals != nil {
			all = append(all, constraint.Not{Inner: constraint.ColumnEquals{Index: idx, Value: *c.NotEquals}})
		}
		if len(c.OneOf) > 0 {
			all = append(all, constraint.Project{Indexes: []int{idx}, Inner: constraint.NewOneOf(c.OneOf...)})
		}
		if c.Matches != "" {
			re, err := regexp.Compile(c.Matches)
			if err != nil {
				return nil, invalid(rule, fmt.Sprintf("bad pattern %q: %v", c.Matches, err))
			}
			all = append(all, constraint.Project{Indexes: []int{idx}, Inner: constraint.Matches{Pattern: re}})
		}
		if len(all) == before {
			return nil, invalid(rule, fmt.Sprintf("condition on %q has no test", c.Column))
		}
	}
	return all, nil
}

func invalid(rule, message string) *dcerrors.DCError {
	err := dcerrors.NewConfigurationError(dcerrors.CodeInvalidRule, message)
	if rule != "" {
		err.WithDetail("rule", rule)
		err.Message = rule + ": " + message
	}
	return err
}
