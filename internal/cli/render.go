package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/pipeline"
)

// renderCommand creates the render command for drawing a saved layout.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags   renderFlags
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render a layout to SVG, PDF, XLSX or JSON",
		Long: `Render a layout produced by 'layout'.

svg   board drawing with cluster boxes and wires
pdf   placement sheet: the board, then one page per cluster, tagged with a
      QR code carrying the run id
xlsx  placement table for assembly (Placements, Clusters, Summary sheets)
json  the layout itself, re-encoded`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Logger: c.Logger}
			if err := flags.apply(&opts); err != nil {
				return err
			}
			if len(opts.Formats) == 0 {
				return fmt.Errorf("no output format given")
			}
			return c.runRender(cmd.Context(), args[0], output, noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	flags.register(cmd, "svg")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, output string, noCache bool, opts pipeline.Options) error {
	l, err := board.ImportLayout(input)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	artifacts, cached, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	paths, err := writeArtifacts(artifacts, opts.Formats, input, output)
	if err != nil {
		return err
	}
	printSuccess("Rendered %s", l.Board)
	for _, p := range paths {
		printFile(p)
	}
	printStats(l.Stats.Placed, l.Stats.Components, len(l.Clusters), cached)
	return nil
}
