package validate

import (
	"sort"
)

// Key binds a rule to an input key. The key doubles as the rule's label.
type Key struct {
	Name string
	Rule Rule
}

// Field is shorthand for building a Key.
func Field(name string, r Rule) Key {
	return Key{Name: name, Rule: r.Label(name)}
}

// Schema validates an object of string values, key by key in declaration
// order. Keys not declared in the schema are rejected.
type Schema struct {
	keys []Key
}

// Object builds a schema from keys.
func Object(keys ...Key) Schema {
	return Schema{keys: keys}
}

// Rule returns the rule declared for name.
func (s Schema) Rule(name string) (Rule, bool) {
	for _, k := range s.keys {
		if k.Name == name {
			return k.Rule, true
		}
	}
	return Rule{}, false
}

// Validate checks input and returns its values as strings. Validation stops
// at the first failure.
func (s Schema) Validate(input map[string]any) (map[string]string, Result) {
	values := make(map[string]string, len(s.keys))

	for _, k := range s.keys {
		raw, present := input[k.Name]
		var v string
		if present {
			str, ok := raw.(string)
			if !ok {
				return nil, Result{Rule: "type", Message: quote(k.Name) + " must be a string"}
			}
			v = str
		}
		if res := k.Rule.ValidatePresent(v, present); !res.OK() {
			return nil, res
		}
		if present {
			values[k.Name] = v
		}
	}

	var unknown []string
	for name := range input {
		if _, ok := s.Rule(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, Result{Rule: "unknown", Message: quote(unknown[0]) + " is not allowed"}
	}

	return values, Result{}
}
