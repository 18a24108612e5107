package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/boardpack/pkg/cluster"
	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/pipeline"
	"github.com/matzehuels/boardpack/pkg/render"
)

// graphCommand creates the graph command for drawing the connectivity graph.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format  string
		output  string
		orphans string
	)

	cmd := &cobra.Command{
		Use:   "graph [board.toml|board.json]",
		Short: "Draw the connectivity graph and its clusters",
		Long: `Draw the connectivity graph of a board as Graphviz DOT or SVG.

Major components are boxes, basic passives are ellipses, and each cluster
is drawn as a subgraph. Orphaned passives are greyed out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "dot" && format != "svg" {
				return errors.New(errors.ErrCodeUnsupported, "unsupported graph format %q (want dot or svg)", format)
			}
			policy := c.cfg.Cluster.Orphans
			if orphans != "" {
				policy = cluster.OrphanPolicy(orphans)
			}
			if !policy.Valid() {
				return errors.New(errors.ErrCodeInvalidInput, "unknown orphan policy %q", policy)
			}
			return c.runGraph(cmd.Context(), args[0], format, output, policy)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg, dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <board>.graph.<format>)")
	cmd.Flags().StringVar(&orphans, "orphans", "", "orphaned basic components: drop, singleton")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, input, format, output string, policy cluster.OrphanPolicy) error {
	b, _, err := pipeline.Load(input)
	if err != nil {
		return fmt.Errorf("load board %s: %w", input, err)
	}

	classifier := c.cfg.NewClassifier()
	groups := cluster.Group(b.Refs(), b.Graph(), classifier.IsBasic, cluster.Options{Orphans: policy})
	data := []byte(render.DOT(b, groups, classifier))
	if format == "svg" {
		if data, err = render.DOTToSVG(ctx, string(data)); err != nil {
			return err
		}
	}

	if output == "" {
		output = outputBase(input) + ".graph." + format
	}
	if err := errors.ValidateOutputPath(output); err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Graph written")
	printFile(output)
	printDetail("%d components · %d clusters · %d orphans", len(b.Components), len(groups.Clusters), len(groups.Orphans))
	return nil
}
