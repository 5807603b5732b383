// Command flowc parses a node/storage YAML file and one or more flow
// YAML files, statically checks the resulting System, and emits a plan
// artifact, a per-flow diagram, or queue listings — the CLI surface of
// spec.md §6, styled after the teacher's flag.NewFlagSet CLI in
// backend/cmd/cli and the repeatable flags of original_source's
// parsley-cli.py.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"flowc/internal/obslog"
	"flowc/pkg/check"
	"flowc/pkg/config"
	"flowc/pkg/graph"
	"flowc/pkg/migration"
	"flowc/pkg/model"
	"flowc/pkg/plan"
	"flowc/pkg/predicate"
)

// stringList accumulates repeated -flow-definition flags in order, the
// way argparse's nargs='+' collects multiple -flow-definition values in
// the original CLI.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// countFlag counts how many times -verbose was given, mirroring
// argparse's action='count'.
type countFlag int

func (c *countFlag) String() string { return fmt.Sprint(int(*c)) }

func (c *countFlag) Set(string) error {
	*c++
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("flowc", flag.ContinueOnError)

	var flowPaths stringList
	var verbosity countFlag

	nodesPath := fs.String("nodes-definition", "", "path to the tasks/storages definition file (required)")
	fs.Var(&flowPaths, "flow-definition", "path to a flow definition file (required, may be repeated)")
	configPath := fs.String("config", "", "path to a visual styling / host configuration file")
	noCheck := fs.Bool("no-check", false, "skip the static checker")
	dumpPath := fs.String("dump", "", "write the plan artifact to this file")
	graphDir := fs.String("graph", "", "write one diagram per flow into this directory")
	graphFormat := fs.String("graph-format", "svg", "diagram format for -graph (mermaid, ascii, svg as a mermaid alias)")
	listTaskQueues := fs.Bool("list-task-queues", false, "print \"task_name:queue_name\" lines")
	listDispatcherQueue := fs.Bool("list-dispatcher-queue", false, "print \"dispatcher:queue_name\"")
	fs.Var(&verbosity, "verbose", "increase log verbosity (repeatable)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: flowc -nodes-definition NODES.yaml -flow-definition FLOW.yaml [FLOW.yaml ...] [options]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *nodesPath == "" || len(flowPaths) == 0 {
		fs.Usage()
		return 1
	}

	obslog.SetLevel(verbosityToLevel(int(verbosity)))
	log := obslog.For("cli")

	if *configPath != "" {
		log.Info("loading host configuration", map[string]interface{}{"path": *configPath})
	}

	registry := model.NewRegistry()
	exprCache := predicate.NewExprCache(256)
	predicate.RegisterBuiltins(registry, exprCache)

	sys, err := config.Load(*nodesPath, flowPaths, registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if !*noCheck {
		warnings, err := check.System(sys)
		for _, w := range warnings {
			log.Warn(w, nil)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	someWork := false

	if *dumpPath != "" {
		if err := dumpPlan(sys, *dumpPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		someWork = true
	}

	if *graphDir != "" {
		if err := writeGraphs(sys, *graphDir, *graphFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		someWork = true
	}

	if *listTaskQueues {
		for _, name := range sys.TaskOrder {
			fmt.Printf("%s:%s\n", name, sys.Tasks[name].QueueName)
		}
		someWork = true
	}

	if *listDispatcherQueue {
		fmt.Printf("dispatcher:%s\n", sys.Global.DefaultDispatcherQueue)
		someWork = true
	}

	if !someWork {
		fs.Usage()
		return 1
	}

	return 0
}

func dumpPlan(sys *config.System, path string) error {
	artifact, err := plan.Build(sys)
	if err != nil {
		return fmt.Errorf("building plan artifact: %w", err)
	}
	data, err := artifact.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling plan artifact: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func writeGraphs(sys *config.System, dir, format string) error {
	renderer, err := graph.Resolve(format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating graph output directory: %w", err)
	}

	ext := "mmd"
	if renderer.Format() == "ascii" {
		ext = "txt"
	}

	for _, name := range sys.FlowOrder {
		diagram, err := renderer.Render(sys.Flows[name])
		if err != nil {
			return fmt.Errorf("rendering flow %s: %w", name, err)
		}
		outPath := fmt.Sprintf("%s/%s.%s", dir, name, ext)
		if err := os.WriteFile(outPath, []byte(diagram), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
	}
	return nil
}

func verbosityToLevel(count int) zerolog.Level {
	switch {
	case count >= 2:
		return zerolog.DebugLevel
	case count == 1:
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}

// applyMigration replays a dispatcher message against the on-disk
// migration directory via migration.Replay. No CLI flag reaches it, and as
// an unexported function of package main it cannot be called from outside
// this command; hosts call migration.Replay directly.
func applyMigration(dir string, msg *migration.Message) ([]string, error) {
	return migration.Replay(dir, msg)
}
