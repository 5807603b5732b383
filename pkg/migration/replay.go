package migration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Message is the minimal runtime shape migration replay reads and
// rewrites: the flow name, the migration version and the list of waiting
// edge indices. Its JSON tags place waiting_edges at the top level, so it
// does not decode a message whose waiting_edges sits inside a nested
// `state` object.
type Message struct {
	FlowName          string `json:"flow_name"`
	MigrationVersion  int    `json:"migration_version"`
	WaitingEdges      []int  `json:"waiting_edges"`
}

// Replay applies every migration file in dir, in sequence
// current_version+1, +2, ..., until no further file exists, rewriting
// msg.WaitingEdges in place and advancing msg.MigrationVersion. It returns
// the deduplicated set of node names that must be (re)started because a
// migration dropped an edge they were waiting on — the nodes2start
// supplemented feature.
func Replay(dir string, msg *Message) (nodesToStart []string, err error) {
	seen := make(map[string]bool)

	for {
		nextVersion := msg.MigrationVersion + 1
		path := filepath.Join(dir, strconv.Itoa(nextVersion)+".json")

		data, readErr := os.ReadFile(path)
		if os.IsNotExist(readErr) {
			break
		}
		if readErr != nil {
			return nil, readErr
		}

		var content fileContent
		if err := json.Unmarshal(data, &content); err != nil {
			return nil, err
		}

		flowMig, ok := content.Migration[msg.FlowName]
		if ok {
			dropped := content.DroppedTargets[msg.FlowName]
			rewritten := make([]int, 0, len(msg.WaitingEdges))
			for _, w := range msg.WaitingEdges {
				newIdx, inSpec := flowMig[strconv.Itoa(w)]
				if !inSpec {
					rewritten = append(rewritten, w)
					continue
				}
				if newIdx == nil {
					for _, name := range dropped[strconv.Itoa(w)] {
						if !seen[name] {
							seen[name] = true
							nodesToStart = append(nodesToStart, name)
						}
					}
					continue
				}
				rewritten = append(rewritten, *newIdx)
			}
			msg.WaitingEdges = rewritten
		}

		msg.MigrationVersion = nextVersion
	}

	return nodesToStart, nil
}
