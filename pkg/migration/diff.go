// Package migration implements the configuration-migration engine of
// spec.md §4.K: diffing two flow-definition configurations into a numbered
// migration file of per-flow edge-index remappings, and replaying a chain
// of such files against a runtime Message's waiting_edges.
package migration

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"flowc/internal/obslog"
	"flowc/pkg/model"
)

// rawEdge is an edge as written in a flow-definition YAML file, reduced to
// the two fields that determine which dispatcher-state slot it occupies.
type rawEdge struct {
	idx  int
	from map[string]bool
	to   map[string]bool
}

func (e rawEdge) equalFromTo(o rawEdge) bool {
	return setEqual(e.from, o.from) && setEqual(e.to, o.to)
}

func setEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// LoadFlowEdges parses every flow-definition file in paths into
// flow name -> ordered raw edges, discarding condition/foreach and every
// other per-edge attribute: they do not affect which dispatcher-state slot
// the edge occupies.
func LoadFlowEdges(paths []string) (map[string][]rawEdge, error) {
	result := make(map[string][]rawEdge)
	for _, path := range paths {
		doc, err := readFlowDoc(path)
		if err != nil {
			return nil, err
		}
		defs, _ := doc["flow-definitions"].([]interface{})
		for _, rawDef := range defs {
			def, ok := rawDef.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := def["name"].(string)
			edgesRaw, _ := def["edges"].([]interface{})
			edges := make([]rawEdge, 0, len(edgesRaw))
			for idx, e := range edgesRaw {
				edgeDict, ok := e.(map[string]interface{})
				if !ok {
					continue
				}
				edges = append(edges, rawEdge{
					idx:  idx,
					from: toSet(edgeDict["from"]),
					to:   toSet(edgeDict["to"]),
				})
			}
			result[name] = edges
		}
	}
	return result, nil
}

func readFlowDoc(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

func toSet(raw interface{}) map[string]bool {
	out := make(map[string]bool)
	list, _ := raw.([]interface{})
	for _, item := range list {
		if s, ok := item.(string); ok {
			out[s] = true
		}
	}
	return out
}

// FlowMigration is one flow's remapping: old edge index -> new edge index
// (nil meaning dropped). droppedTargets records the nodes_to of dropped
// edges, used to compute nodes2start at replay time — the supplemented
// feature of spec.md's SPEC_FULL expansion.
type FlowMigration struct {
	Remap          map[int]*int
	DroppedTargets map[int][]string
}

// Diff computes spec.md §4.K's diff algorithm for every flow present in
// both oldEdges and newEdges.
func Diff(oldEdges, newEdges map[string][]rawEdge) (map[string]FlowMigration, error) {
	migrations := make(map[string]FlowMigration)
	log := obslog.For("migrate")

	for flowName, oldList := range oldEdges {
		newList, ok := newEdges[flowName]
		if !ok {
			// flow removed: log and ignore, per spec.md §4.K.
			log.Info("flow removed, no migration generated for it", map[string]interface{}{"flow": flowName})
			continue
		}
		fm := diffFlow(oldList, newList)
		if len(fm.Remap) > 0 {
			migrations[flowName] = fm
		}
	}
	for flowName := range newEdges {
		if _, ok := oldEdges[flowName]; !ok {
			log.Info("flow added, no migration generated for it", map[string]interface{}{"flow": flowName})
		}
	}

	return migrations, nil
}

func diffFlow(oldList, newList []rawEdge) FlowMigration {
	oldMatched := make(map[int]int, len(oldList))  // old idx -> new idx
	newMatched := make(map[int]bool, len(newList)) // new idx matched

	// Step 2: exact (from, to) match.
	for _, oldEdge := range oldList {
		for _, newEdge := range newList {
			if newMatched[newEdge.idx] {
				continue
			}
			if oldEdge.equalFromTo(newEdge) {
				oldMatched[oldEdge.idx] = newEdge.idx
				newMatched[newEdge.idx] = true
				break
			}
		}
	}

	// Step 3: unmatched old edges, match by `from` set alone.
	for _, oldEdge := range oldList {
		if _, ok := oldMatched[oldEdge.idx]; ok {
			continue
		}
		for _, newEdge := range newList {
			if newMatched[newEdge.idx] {
				continue
			}
			if setEqual(oldEdge.from, newEdge.from) {
				oldMatched[oldEdge.idx] = newEdge.idx
				newMatched[newEdge.idx] = true
				break
			}
		}
	}

	remap := make(map[int]*int)
	droppedTargets := make(map[int][]string)
	for _, oldEdge := range oldList {
		newIdx, matched := oldMatched[oldEdge.idx]
		if matched {
			if newIdx == oldEdge.idx {
				continue // identity map, omitted per spec.md §4.K step 4.
			}
			n := newIdx
			remap[oldEdge.idx] = &n
			continue
		}
		remap[oldEdge.idx] = nil
		targets := make([]string, 0, len(oldEdge.to))
		for name := range oldEdge.to {
			targets = append(targets, name)
		}
		sort.Strings(targets)
		droppedTargets[oldEdge.idx] = targets
	}

	return FlowMigration{Remap: remap, DroppedTargets: droppedTargets}
}

// ErrMigrationNotNeeded is returned by GenerateAndWrite when the diff is
// empty for every flow.
var ErrMigrationNotNeeded = model.ErrMigrationNotNeeded
