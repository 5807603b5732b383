package model

// PropagationKind discriminates a PropagationFlag's three legal shapes:
// false, true, or an explicit list of sub-flow node names.
type PropagationKind int

const (
	PropagationFalse PropagationKind = iota
	PropagationTrue
	PropagationList
)

// PropagationFlag is the `false | true | [sub-flow names]` shape shared by
// Flow's seven propagation attributes (spec.md §3 Flow, and the Open
// Question on propagate_* defaulting: this spec fixes the zero value to
// PropagationFalse rather than an untyped nil).
type PropagationFlag struct {
	Kind  PropagationKind
	Names []string
}

// ParsePropagationFlag converts a YAML-decoded value (bool, []interface{},
// or absent/nil) into a PropagationFlag.
func ParsePropagationFlag(raw interface{}) (PropagationFlag, error) {
	switch v := raw.(type) {
	case nil:
		return PropagationFlag{Kind: PropagationFalse}, nil
	case bool:
		if v {
			return PropagationFlag{Kind: PropagationTrue}, nil
		}
		return PropagationFlag{Kind: PropagationFalse}, nil
	case []interface{}:
		names := make([]string, 0, len(v))
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return PropagationFlag{}, NewConfigurationError("", "", "propagation flag list entries must be strings")
			}
			names = append(names, name)
		}
		return PropagationFlag{Kind: PropagationList, Names: names}, nil
	default:
		return PropagationFlag{}, NewConfigurationError("", "", "propagation flag must be a bool or a list of strings")
	}
}

// IsFalse reports whether the flag is the false/zero-value shape.
func (f PropagationFlag) IsFalse() bool { return f.Kind == PropagationFalse }

// IsTrue reports whether the flag is the bare-true shape.
func (f PropagationFlag) IsTrue() bool { return f.Kind == PropagationTrue }

// Contains reports whether the flag, in its list shape, names node.
// A bare-true flag is treated as containing every node.
func (f PropagationFlag) Contains(node string) bool {
	switch f.Kind {
	case PropagationTrue:
		return true
	case PropagationList:
		for _, n := range f.Names {
			if n == node {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// disjoint enforces the cross-attribute invariant: at most one of (plain,
// compound) may be PropagationTrue, and their list forms must not share a
// node name.
func disjoint(plain, compound PropagationFlag) error {
	if plain.Kind == PropagationTrue && compound.Kind == PropagationTrue {
		return NewConfigurationError("", "", "propagate flag and its compound counterpart cannot both be true")
	}
	if plain.Kind == PropagationList && compound.Kind == PropagationList {
		seen := make(map[string]bool, len(plain.Names))
		for _, n := range plain.Names {
			seen[n] = true
		}
		for _, n := range compound.Names {
			if seen[n] {
				return NewConfigurationError("", "", "node "+n+" present in both a propagate flag and its compound counterpart")
			}
		}
	}
	return nil
}
