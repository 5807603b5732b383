package model

// FailureDescriptor is one entry of a flow's `failures` configuration list:
// a set of task names observed to have failed together, the fallback to
// dispatch when that exact set has failed, and whether the failure should
// propagate to a parent flow (spec.md §4.E).
type FailureDescriptor struct {
	Nodes            []string
	Fallback         []string
	FallbackIsTrue   bool
	PropagateFailure bool
}

// FailureNode is one permutation in the sparse failure lattice: the set of
// tasks traversed (failed) to reach it, the fallback to dispatch if no
// deeper permutation matches, and the allocation-order back-link used for
// deterministic plan emission.
type FailureNode struct {
	Flow             *Flow
	Traversed        []string
	Fallback         []string
	FallbackIsTrue   bool
	PropagateFailure bool
	Next             map[string]*FailureNode
	FailureLink      *FailureNode
}

func newFailureNode(flow *Flow, traversed []string, link *FailureNode) *FailureNode {
	return &FailureNode{
		Flow:        flow,
		Traversed:   traversed,
		Next:        make(map[string]*FailureNode),
		FailureLink: link,
	}
}

// To returns the permutation reached by additionally failing nodeName.
func (f *FailureNode) To(nodeName string) (*FailureNode, bool) {
	n, ok := f.Next[nodeName]
	return n, ok
}

func (f *FailureNode) addTo(nodeName string, target *FailureNode) {
	f.Next[nodeName] = target
}

func (f *FailureNode) hasTraversed(name string) bool {
	for _, n := range f.Traversed {
		if n == name {
			return true
		}
	}
	return false
}

// FailureGraph is the full sparse permutation lattice for one flow's
// `failures` list: a one-way allocation-order linked list (via
// FailureLink, tail-first) for deterministic emission, plus a map of entry
// points for runtime dispatch (spec.md §4.E output).
type FailureGraph struct {
	LastAllocated   *FailureNode
	StartingFailures map[string]*FailureNode
}

// ConstructFailureGraph builds the permutation lattice from a flow's
// failure descriptors, following the "add one more failed task" transition
// algorithm: for each descriptor, known single-task permutations are
// reused, then permutations of increasing length are built by extending
// every current permutation with every other named task, linking siblings
// that differ by exactly one task (symmetric difference) so traversal from
// any order of discovery lands on the same node.
func ConstructFailureGraph(flow *Flow, failures []FailureDescriptor) (*FailureGraph, error) {
	var lastAllocated *FailureNode
	startingFailures := make(map[string]*FailureNode)

	for _, failure := range failures {
		if len(failure.Nodes) == 0 {
			return nil, NewConfigurationError(flowName(flow), "", "failure descriptor must name at least one node")
		}

		usedStarting := make(map[string]*FailureNode, len(failure.Nodes))
		for _, node := range failure.Nodes {
			existing, ok := startingFailures[node]
			if !ok {
				fn := newFailureNode(flow, []string{node}, lastAllocated)
				lastAllocated = fn
				startingFailures[node] = fn
				usedStarting[node] = fn
			} else {
				usedStarting[node] = existing
			}
		}

		currentNodes := make([]*FailureNode, 0, len(usedStarting))
		for _, node := range failure.Nodes {
			currentNodes = append(currentNodes, usedStarting[node])
		}
		// dedupe preserving first occurrence, mirroring Python dict.values()
		// iteration over used_starting_failures built in `failure['nodes']`
		// order.
		currentNodes = dedupeFailureNodes(currentNodes)

		for length := 1; length < len(failure.Nodes); length++ {
			var nextNodes []*FailureNode

			for _, edgeNode := range failure.Nodes {
				for _, currentNode := range currentNodes {
					if currentNode.hasTraversed(edgeNode) {
						continue
					}

					if existing, ok := currentNode.To(edgeNode); ok {
						nextNodes = append(nextNodes, existing)
						continue
					}

					nextTraversed := append(append([]string{}, currentNode.Traversed...), edgeNode)
					fn := newFailureNode(flow, nextTraversed, lastAllocated)
					lastAllocated = fn
					currentNode.addTo(edgeNode, fn)

					for _, sibling := range currentNodes {
						diff := symmetricDifference(sibling.Traversed, nextTraversed)
						if len(diff) == 1 {
							if _, ok := sibling.To(diff[0]); !ok {
								sibling.addTo(diff[0], fn)
							}
						}
					}

					nextNodes = append(nextNodes, fn)
				}
			}

			currentNodes = nextNodes
		}

		target := usedStarting[failure.Nodes[0]]
		for _, node := range failure.Nodes[1:] {
			next, ok := target.To(node)
			if !ok {
				return nil, NewConfigurationError(flowName(flow), "", "internal error: failure permutation not constructed")
			}
			target = next
		}

		if len(target.Fallback) > 0 || target.FallbackIsTrue {
			return nil, NewConfigurationErrorWrap(flowName(flow), "", ErrDuplicateFailureDefinition)
		}
		if failure.FallbackIsTrue && failure.PropagateFailure {
			return nil, NewConfigurationErrorWrap(flowName(flow), "", ErrFallbackTrueAndPropagate)
		}
		target.Fallback = failure.Fallback
		target.FallbackIsTrue = failure.FallbackIsTrue
		target.PropagateFailure = failure.PropagateFailure
	}

	return &FailureGraph{LastAllocated: lastAllocated, StartingFailures: startingFailures}, nil
}

func dedupeFailureNodes(nodes []*FailureNode) []*FailureNode {
	seen := make(map[*FailureNode]bool, len(nodes))
	result := make([]*FailureNode, 0, len(nodes))
	for _, n := range nodes {
		if seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	return result
}

func symmetricDifference(a, b []string) []string {
	inA := make(map[string]bool, len(a))
	for _, v := range a {
		inA[v] = true
	}
	inB := make(map[string]bool, len(b))
	for _, v := range b {
		inB[v] = true
	}
	var diff []string
	for v := range inA {
		if !inB[v] {
			diff = append(diff, v)
		}
	}
	for v := range inB {
		if !inA[v] {
			diff = append(diff, v)
		}
	}
	return diff
}

// AllWaitingNodes returns the union of every task name that appears in any
// permutation of the graph, i.e. every task the runtime must watch for
// failure.
func (g *FailureGraph) AllWaitingNodes() []string {
	seen := make(map[string]bool)
	for n := g.LastAllocated; n != nil; n = n.FailureLink {
		for _, t := range n.Traversed {
			seen[t] = true
		}
	}
	result := make([]string, 0, len(seen))
	for t := range seen {
		result = append(result, t)
	}
	return result
}

// AllFallbackNodes returns the union of every task name named as a
// fallback anywhere in the graph.
func (g *FailureGraph) AllFallbackNodes() []string {
	seen := make(map[string]bool)
	for n := g.LastAllocated; n != nil; n = n.FailureLink {
		for _, t := range n.Fallback {
			seen[t] = true
		}
	}
	result := make([]string, 0, len(seen))
	for t := range seen {
		result = append(result, t)
	}
	return result
}
