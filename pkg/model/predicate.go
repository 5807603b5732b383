package model

import (
	"fmt"
	"sort"
	"strings"
)

// PredicateKind discriminates the Predicate tagged variant:
// Leaf | And | Or | Not | AlwaysTrue (spec.md §3, Design Notes "Predicate
// polymorphism").
type PredicateKind int

const (
	PredicateLeaf PredicateKind = iota
	PredicateAnd
	PredicateOr
	PredicateNot
	PredicateAlwaysTrue
)

func (k PredicateKind) String() string {
	switch k {
	case PredicateLeaf:
		return "leaf"
	case PredicateAnd:
		return "and"
	case PredicateOr:
		return "or"
	case PredicateNot:
		return "not"
	case PredicateAlwaysTrue:
		return "always_true"
	default:
		return "unknown"
	}
}

// MessageStore is the runtime contract a Predicate reads stored task
// results from: db.get(flow_name, node_name) in spec.md §4.B.
type MessageStore interface {
	Get(flowName, nodeName string) (interface{}, error)
}

// Predicate is a composable boolean condition: a leaf call, an N-ary
// And/Or, a unary Not, or the AlwaysTrue sentinel used when no condition is
// specified.
type Predicate struct {
	Kind PredicateKind

	// Leaf fields.
	FunctionRef string
	LeafFn      *LeafFunc // resolved at construct time
	LeafNode    Node      // bound node (nil for a starting-edge leaf)
	LeafFlow    *Flow
	Args        map[string]interface{}

	// And/Or/Not fields.
	Children []*Predicate
}

// AlwaysTrue returns the always-true predicate used when an edge specifies
// no condition.
func AlwaysTrue() *Predicate {
	return &Predicate{Kind: PredicateAlwaysTrue}
}

// ConstructPredicate recursively descends a tagged dict with exactly one of
// the keys "name", "and", "or", "not" (spec.md §4.B construct). nodesFrom is
// the edge's source node set used to resolve an unqualified leaf binding.
func ConstructPredicate(tree map[string]interface{}, nodesFrom []Node, flow *Flow, registry *Registry) (*Predicate, error) {
	if tree == nil {
		return AlwaysTrue(), nil
	}

	present := 0
	for _, key := range []string{"name", "and", "or", "not"} {
		if _, ok := tree[key]; ok {
			present++
		}
	}
	if present == 0 {
		return nil, NewConfigurationError(flowName(flow), "", "predicate dict must have exactly one of name/and/or/not, found none")
	}
	if present > 1 {
		return nil, NewConfigurationError(flowName(flow), "", "predicate dict must have exactly one of name/and/or/not, found more than one")
	}
	for key := range tree {
		switch key {
		case "name", "and", "or", "not", "node", "args":
		default:
			return nil, NewConfigurationError(flowName(flow), "", fmt.Sprintf("unknown predicate key %q", key))
		}
	}

	if name, ok := tree["name"]; ok {
		return constructLeaf(name, tree, nodesFrom, flow, registry)
	}
	if children, ok := tree["and"]; ok {
		return constructNary(PredicateAnd, "and", children, nodesFrom, flow, registry)
	}
	if children, ok := tree["or"]; ok {
		return constructNary(PredicateOr, "or", children, nodesFrom, flow, registry)
	}
	child := tree["not"]
	childDict, ok := child.(map[string]interface{})
	if !ok {
		return nil, NewConfigurationError(flowName(flow), "", "'not' must be a single predicate dict")
	}
	inner, err := ConstructPredicate(childDict, nodesFrom, flow, registry)
	if err != nil {
		return nil, err
	}
	return &Predicate{Kind: PredicateNot, Children: []*Predicate{inner}}, nil
}

func constructNary(kind PredicateKind, key string, raw interface{}, nodesFrom []Node, flow *Flow, registry *Registry) (*Predicate, error) {
	list, ok := raw.([]interface{})
	if !ok || len(list) == 0 {
		return nil, NewConfigurationError(flowName(flow), "", fmt.Sprintf("'%s' must be a non-empty list of predicate dicts", key))
	}
	children := make([]*Predicate, 0, len(list))
	for _, item := range list {
		dict, ok := item.(map[string]interface{})
		if !ok {
			return nil, NewConfigurationError(flowName(flow), "", fmt.Sprintf("'%s' entries must be predicate dicts", key))
		}
		child, err := ConstructPredicate(dict, nodesFrom, flow, registry)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return &Predicate{Kind: kind, Children: children}, nil
}

func constructLeaf(name interface{}, tree map[string]interface{}, nodesFrom []Node, flow *Flow, registry *Registry) (*Predicate, error) {
	fnName, ok := name.(string)
	if !ok {
		return nil, NewConfigurationError(flowName(flow), "", "predicate 'name' must be a string")
	}

	var boundNode Node
	if rawNode, ok := tree["node"]; ok {
		nodeName, ok := rawNode.(string)
		if !ok {
			return nil, NewConfigurationError(flowName(flow), "", "predicate 'node' must be a string")
		}
		for _, n := range nodesFrom {
			if n.NodeName() == nodeName {
				boundNode = n
				break
			}
		}
		if boundNode == nil {
			return nil, NewConfigurationError(flowName(flow), nodeName, "predicate node not found in edge's nodes_from")
		}
	} else if len(nodesFrom) == 1 {
		boundNode = nodesFrom[0]
	} else if len(nodesFrom) == 0 {
		boundNode = nil // starting edge
	} else {
		return nil, NewConfigurationError(flowName(flow), "", fmt.Sprintf("leaf %q on a multi-source edge must specify 'node'", fnName))
	}

	args := map[string]interface{}{}
	if rawArgs, ok := tree["args"]; ok {
		dict, ok := rawArgs.(map[string]interface{})
		if !ok {
			return nil, NewConfigurationError(flowName(flow), "", "predicate 'args' must be a dict")
		}
		args = dict
	}

	var leafFn *LeafFunc
	if registry != nil {
		if fn, ok := registry.Lookup(fnName); ok {
			leafFn = fn
		}
	}

	return &Predicate{
		Kind:        PredicateLeaf,
		FunctionRef: fnName,
		LeafFn:      leafFn,
		LeafNode:    boundNode,
		LeafFlow:    flow,
		Args:        args,
	}, nil
}

func flowName(flow *Flow) string {
	if flow == nil {
		return ""
	}
	return flow.Name
}

// Evaluate runs the predicate against db/nodeArgs with the standard
// short-circuit semantics: And left-to-right, Or left-to-right.
func (p *Predicate) Evaluate(db MessageStore, nodeArgs map[string]interface{}) (bool, error) {
	switch p.Kind {
	case PredicateAlwaysTrue:
		return true, nil
	case PredicateNot:
		v, err := p.Children[0].Evaluate(db, nodeArgs)
		if err != nil {
			return false, err
		}
		return !v, nil
	case PredicateAnd:
		for _, child := range p.Children {
			v, err := child.Evaluate(db, nodeArgs)
			if err != nil {
				return false, err
			}
			if !v {
				return false, nil
			}
		}
		return true, nil
	case PredicateOr:
		for _, child := range p.Children {
			v, err := child.Evaluate(db, nodeArgs)
			if err != nil {
				return false, err
			}
			if v {
				return true, nil
			}
		}
		return false, nil
	case PredicateLeaf:
		return p.evaluateLeaf(db, nodeArgs)
	default:
		return false, fmt.Errorf("unknown predicate kind %v", p.Kind)
	}
}

func (p *Predicate) evaluateLeaf(db MessageStore, nodeArgs map[string]interface{}) (bool, error) {
	if p.LeafFn == nil {
		return false, fmt.Errorf("leaf predicate %q is not registered", p.FunctionRef)
	}

	var message interface{}
	if p.LeafFn.RequiresMessage {
		if p.LeafNode == nil {
			return false, ErrNoParentNode
		}
		if db == nil {
			return false, fmt.Errorf("leaf predicate %q requires a message store", p.FunctionRef)
		}
		m, err := db.Get(flowName(p.LeafFlow), p.LeafNode.NodeName())
		if err != nil {
			return false, err
		}
		message = m
	}

	var args map[string]interface{}
	if p.LeafFn.RequiresNodeArgs {
		args = nodeArgs
	}

	return p.LeafFn.Call(message, args, p.Args)
}

// RequiresMessage is the union over children of whether any leaf requires a
// stored message.
func (p *Predicate) RequiresMessage() bool {
	switch p.Kind {
	case PredicateLeaf:
		return p.LeafFn != nil && p.LeafFn.RequiresMessage
	case PredicateAlwaysTrue:
		return false
	default:
		for _, child := range p.Children {
			if child.RequiresMessage() {
				return true
			}
		}
		return false
	}
}

// NodesUsed is the union over children of the nodes referenced by leaves.
func (p *Predicate) NodesUsed() map[string]Node {
	used := make(map[string]Node)
	p.collectNodesUsed(used)
	return used
}

func (p *Predicate) collectNodesUsed(used map[string]Node) {
	switch p.Kind {
	case PredicateLeaf:
		if p.LeafNode != nil {
			used[p.LeafNode.NodeName()] = p.LeafNode
		}
	default:
		for _, child := range p.Children {
			child.collectNodesUsed(used)
		}
	}
}

// PredicatesUsed returns every node of the tree, including p itself, in a
// deterministic pre-order walk.
func (p *Predicate) PredicatesUsed() []*Predicate {
	result := []*Predicate{p}
	for _, child := range p.Children {
		result = append(result, child.PredicatesUsed()...)
	}
	return result
}

// Check recurses the tree and validates every leaf's parameter list against
// its registered LeafFunc.
func (p *Predicate) Check() error {
	switch p.Kind {
	case PredicateLeaf:
		if p.LeafFn == nil {
			return NewConfigurationError(flowName(p.LeafFlow), "", fmt.Sprintf("leaf predicate %q is not registered", p.FunctionRef))
		}
		declared := make(map[string]bool, len(p.LeafFn.Params))
		for _, name := range p.LeafFn.Params {
			declared[name] = true
		}
		for argName := range p.Args {
			if !declared[argName] {
				return NewConfigurationError(flowName(p.LeafFlow), "", fmt.Sprintf("leaf predicate %q received unexpected argument %q", p.FunctionRef, argName))
			}
		}
		for _, name := range p.LeafFn.Params {
			if _, ok := p.Args[name]; !ok {
				return NewConfigurationError(flowName(p.LeafFlow), "", fmt.Sprintf("leaf predicate %q missing required argument %q", p.FunctionRef, name))
			}
		}
		return nil
	default:
		for _, child := range p.Children {
			if err := child.Check(); err != nil {
				return err
			}
		}
		return nil
	}
}

// ToSource renders the predicate as a Go-style boolean expression string:
// And/Or/Not become &&, || and !, and each leaf becomes a call whose
// arguments are message("Node") and/or nodeArgs followed by sorted
// name=value pairs. Because of those name=value pairs the result is a
// readable condition string, not compilable Go source.
func (p *Predicate) ToSource() string {
	var b strings.Builder
	p.writeSource(&b)
	return b.String()
}

func (p *Predicate) writeSource(b *strings.Builder) {
	switch p.Kind {
	case PredicateAlwaysTrue:
		b.WriteString("true")
	case PredicateNot:
		b.WriteString("!(")
		p.Children[0].writeSource(b)
		b.WriteString(")")
	case PredicateAnd, PredicateOr:
		op := " && "
		if p.Kind == PredicateOr {
			op = " || "
		}
		b.WriteString("(")
		for i, child := range p.Children {
			if i > 0 {
				b.WriteString(op)
			}
			child.writeSource(b)
		}
		b.WriteString(")")
	case PredicateLeaf:
		p.writeLeafSource(b)
	}
}

func (p *Predicate) writeLeafSource(b *strings.Builder) {
	fmt.Fprintf(b, "%s(", p.FunctionRef)
	keys := make([]string, 0, len(p.Args))
	for k := range p.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := []string{}
	if p.LeafFn != nil && p.LeafFn.RequiresMessage {
		node := "nil"
		if p.LeafNode != nil {
			node = fmt.Sprintf("%q", p.LeafNode.NodeName())
		}
		parts = append(parts, fmt.Sprintf("message(%s)", node))
	}
	if p.LeafFn != nil && p.LeafFn.RequiresNodeArgs {
		parts = append(parts, "nodeArgs")
	}
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%#v", k, p.Args[k]))
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(")")
}
