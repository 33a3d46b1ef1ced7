package schema

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Decode parses a plan document. YAML and JSON are both accepted.
func Decode(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &p, nil
}

func (p *Plan) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: plan must be a mapping", n.Line)
	}
	out := Plan{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		key := strings.TrimSpace(k.Value)
		var err error
		switch key {
		case KeyID:
			out.ID, err = scalarString(v)
		case KeyTitle:
			out.Title, err = scalarString(v)
		case KeyYear:
			out.Year, err = scalarString(v)
		case KeyUnits:
			out.Units, err = scalarUnits(v)
		case KeyElectives:
			out.Electives, err = scalarUnits(v)
		default:
			var subs []Subsection
			subs, err = decodeSubsections(v)
			if err == nil {
				out.Sections = append(out.Sections, Section{Key: key, Subsections: subs})
			}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	*p = out
	return nil
}

func decodeSubsections(n *yaml.Node) ([]Subsection, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: section must be a list of subsections", n.Line)
	}
	out := make([]Subsection, 0, len(n.Content))
	for _, item := range n.Content {
		var sub Subsection
		if err := item.Decode(&sub); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *Subsection) UnmarshalYAML(n *yaml.Node) error {
	fields, err := mapping(n)
	if err != nil {
		return err
	}
	out := Subsection{}
	if v, ok := fields["id"]; ok {
		if out.ID, err = scalarString(v); err != nil {
			return fmt.Errorf("id: %w", err)
		}
	}
	if v, ok := fields["title"]; ok {
		if out.Title, err = scalarString(v); err != nil {
			return fmt.Errorf("title: %w", err)
		}
	}
	if v, ok := fields["courses"]; ok && !isNull(v) {
		if v.Kind != yaml.SequenceNode {
			return fmt.Errorf("line %d: courses must be a list", v.Line)
		}
		for _, item := range v.Content {
			e, err := decodeEntry(item)
			if err != nil {
				return fmt.Errorf("subsection %q: %w", out.ID, err)
			}
			out.Courses = append(out.Courses, e)
		}
	}
	if v, ok := fields["plan"]; ok && !isNull(v) {
		if v.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: plan options must be a mapping", v.Line)
		}
		for i := 0; i+1 < len(v.Content); i += 2 {
			key := strings.TrimSpace(v.Content[i].Value)
			subs, err := decodeSubsections(v.Content[i+1])
			if err != nil {
				return fmt.Errorf("option %q: %w", key, err)
			}
			out.Options = append(out.Options, SubPlanOption{Key: key, Subsections: subs})
		}
	}
	*s = out
	return nil
}

func decodeEntry(n *yaml.Node) (CourseEntry, error) {
	fields, err := mapping(n)
	if err != nil {
		return nil, err
	}
	if v, ok := fields["combination"]; ok {
		refs, err := decodeRefs(v)
		if err != nil {
			return nil, fmt.Errorf("combination: %w", err)
		}
		return Combination{Members: refs}, nil
	}
	if v, ok := fields["one_of"]; ok {
		refs, err := decodeRefs(v)
		if err != nil {
			return nil, fmt.Errorf("one_of: %w", err)
		}
		return OneOf{Options: refs}, nil
	}
	if _, ok := fields["code"]; ok {
		return decodeRef(fields)
	}
	return nil, fmt.Errorf("line %d: course entry needs code, combination or one_of", n.Line)
}

func decodeRefs(n *yaml.Node) ([]CourseRef, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list of courses", n.Line)
	}
	out := make([]CourseRef, 0, len(n.Content))
	for _, item := range n.Content {
		fields, err := mapping(item)
		if err != nil {
			return nil, err
		}
		ref, err := decodeRef(fields)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

func decodeRef(fields map[string]*yaml.Node) (CourseRef, error) {
	var ref CourseRef
	var err error
	if ref.Code, err = scalarString(fields["code"]); err != nil {
		return ref, fmt.Errorf("code: %w", err)
	}
	if ref.Code == "" {
		return ref, fmt.Errorf("empty course code")
	}
	if v, ok := fields["title"]; ok {
		if ref.Title, err = scalarString(v); err != nil {
			return ref, fmt.Errorf("title: %w", err)
		}
	}
	if v, ok := fields["units"]; ok {
		if ref.Units, err = scalarUnits(v); err != nil {
			return ref, fmt.Errorf("%s units: %w", ref.Code, err)
		}
	}
	return ref, nil
}

func mapping(n *yaml.Node) (map[string]*yaml.Node, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		line := 0
		if n != nil {
			line = n.Line
		}
		return nil, fmt.Errorf("line %d: expected a mapping", line)
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[strings.TrimSpace(n.Content[i].Value)] = n.Content[i+1]
	}
	return out, nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func scalarString(n *yaml.Node) (string, error) {
	if isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: expected a scalar", n.Line)
	}
	return strings.TrimSpace(n.Value), nil
}

func scalarUnits(n *yaml.Node) (decimal.Decimal, error) {
	s, err := scalarString(n)
	if err != nil || s == "" {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("line %d: %q is not a unit value", n.Line, s)
	}
	return d, nil
}
