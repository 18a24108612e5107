package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/client"
	"github.com/matzehuels/boardpack/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		rf     runFlags
		render renderFlags
		output string
		remote string
	)

	cmd := &cobra.Command{
		Use:   "layout [board.toml|board.json]",
		Short: "Place the components of a board",
		Long: `Place the components of a board.

Components are grouped around their major parts, every group is packed on
its own, and the groups are then packed onto the board. The result is a
layout.json with an absolute position per reference, which 'render' turns
into SVG, PDF or XLSX. Pass -f to render in the same step.

Results are cached by board content and solver settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(&rf)
			if err := render.apply(&opts); err != nil {
				return err
			}
			if remote != "" {
				return c.runRemoteLayout(cmd.Context(), args[0], remote, output, &rf, opts)
			}
			return c.runLayout(cmd.Context(), args[0], output, rf.noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "layout file (default: <board>.layout.json)")
	cmd.Flags().StringVar(&remote, "remote", "", "place on a boardpack server instead (e.g. http://localhost:8080)")
	rf.register(cmd)
	render.register(cmd, "")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, noCache bool, opts pipeline.Options) error {
	b, _, err := pipeline.Load(input)
	if err != nil {
		return fmt.Errorf("load board %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Placing %d components...", len(b.Components)))
	opts.OnCluster = spinner.Progress
	spinner.Start()

	res, err := runner.Execute(ctx, b, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done(fmt.Sprintf("Placed %d components in %d clusters", res.Layout.Stats.Placed, len(res.Layout.Clusters)))

	return c.finishLayout(input, output, res.Layout, res.Artifacts, opts.Formats, res.CacheInfo.LayoutHit)
}

func (c *CLI) runRemoteLayout(ctx context.Context, input, remote, output string, rf *runFlags, opts pipeline.Options) error {
	b, _, err := pipeline.Load(input)
	if err != nil {
		return fmt.Errorf("load board %s: %w", input, err)
	}

	req := client.LayoutRequest{
		Board:        b,
		Formats:      opts.Formats,
		EdgePatterns: rf.edge,
		Orphans:      rf.orphans,
		Refresh:      rf.refresh,
	}
	if rf.padding >= 0 {
		req.Padding = &rf.padding
	}

	spinner := newSpinnerWithContext(ctx, "Waiting for "+remote+"...")
	spinner.Start()
	resp, err := client.New(remote, nil).Layout(ctx, req)
	if err != nil {
		spinner.StopWithError("Remote layout failed")
		return err
	}
	spinner.Stop()

	c.Logger.Debug("remote layout", "run_id", resp.RunID, "cached", resp.Cached)
	return c.finishLayout(input, output, resp.Layout, resp.Artifacts, opts.Formats, resp.Cached)
}

// finishLayout writes the layout and artifacts and prints the summary.
func (c *CLI) finishLayout(input, output string, l *board.Layout, artifacts map[string][]byte, formats []string, cached bool) error {
	layoutPath := output
	if layoutPath == "" {
		layoutPath = outputBase(input) + ".layout.json"
	}
	if err := board.ExportLayout(l, layoutPath); err != nil {
		return fmt.Errorf("write layout %s: %w", layoutPath, err)
	}
	paths, err := writeArtifacts(artifacts, formats, input, "")
	if err != nil {
		return err
	}

	printSuccess("Layout complete")
	printFile(layoutPath)
	for _, p := range paths {
		printFile(p)
	}
	printStats(l.Stats.Placed, l.Stats.Components, len(l.Clusters), cached)
	printNewline()
	printLayoutSummary(l)
	if len(paths) == 0 {
		printNewline()
		printNextStep("Render", appName+" render "+layoutPath)
	}
	return nil
}
