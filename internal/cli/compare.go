package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/pack"
	"github.com/matzehuels/boardpack/pkg/pipeline"
)

// compareCommand creates the compare command.
func (c *CLI) compareCommand() *cobra.Command {
	var (
		rf        runFlags
		scenarios []string
		output    string
		pick      bool
	)

	cmd := &cobra.Command{
		Use:   "compare [board.toml|board.json]",
		Short: "Lay out a board under several weight scenarios",
		Long: `Lay out a board once per weight scenario and compare board area and
wire length. Without --scenario the presets are used:

  balanced     size 2, wire 4
  compact      size 4, wire 1
  short-wires  size 1, wire 8

The layout with the smallest board (ties: shortest wiring) is written, or
the one chosen interactively with --pick.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scs, err := parseScenarios(scenarios)
			if err != nil {
				return err
			}
			return c.runCompare(cmd.Context(), args[0], output, scs, pick, &rf)
		},
	}

	cmd.Flags().StringArrayVarP(&scenarios, "scenario", "s", nil, "scenario as name=size:wire (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "layout file for the chosen scenario (default: <board>.layout.json)")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose the layout interactively")
	rf.register(cmd)

	return cmd
}

func (c *CLI) runCompare(ctx context.Context, input, output string, scenarios []pipeline.Scenario, pick bool, rf *runFlags) error {
	b, _, err := pipeline.Load(input)
	if err != nil {
		return fmt.Errorf("load board %s: %w", input, err)
	}
	runner, err := c.newRunner(ctx, rf.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	n := len(scenarios)
	if n == 0 {
		n = len(pipeline.Presets)
	}
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Comparing %d scenarios...", n))
	spinner.Start()
	cs, err := runner.Compare(ctx, b, scenarios, c.options(rf))
	if err != nil {
		spinner.StopWithError("Comparison failed")
		return err
	}
	spinner.Stop()

	chosen := pipeline.Best(cs)
	if pick {
		m, err := tea.NewProgram(NewScenarioListModel(cs), tea.WithContext(ctx)).Run()
		if err != nil {
			return fmt.Errorf("scenario picker: %w", err)
		}
		if chosen = m.(ScenarioListModel).Selected; chosen < 0 {
			printInfo("No layout selected")
			return nil
		}
	} else {
		fmt.Println(comparisonTable(cs, -1, chosen, false))
	}

	if output == "" {
		output = outputBase(input) + ".layout.json"
	}
	l := cs[chosen].Layout
	if err := board.ExportLayout(l, output); err != nil {
		return fmt.Errorf("write layout %s: %w", output, err)
	}
	printSuccess("Chose %s", StyleHighlight.Render(cs[chosen].Scenario.Name))
	printFile(output)
	printStats(l.Stats.Placed, l.Stats.Components, len(l.Clusters), cs[chosen].Cached)
	return nil
}

// parseScenarios parses "name=size:wire" specs.
func parseScenarios(specs []string) ([]pipeline.Scenario, error) {
	out := make([]pipeline.Scenario, 0, len(specs))
	for _, spec := range specs {
		name, weights, ok := strings.Cut(spec, "=")
		size, wire, ok2 := strings.Cut(weights, ":")
		if !ok || !ok2 || name == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "scenario %q: want name=size:wire", spec)
		}
		s, err1 := strconv.ParseFloat(size, 64)
		w, err2 := strconv.ParseFloat(wire, 64)
		if err1 != nil || err2 != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "scenario %q: weights must be numbers", spec)
		}
		sc := pipeline.Scenario{Name: name, Weights: pack.Weights{Size: s, Wire: w}}
		if err := sc.Weights.Validate(); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
