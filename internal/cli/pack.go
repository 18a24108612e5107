package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/client"
	"github.com/matzehuels/boardpack/pkg/errors"
)

// packCommand creates the pack command for flat JSON pack requests.
func (c *CLI) packCommand() *cobra.Command {
	var (
		output  string
		remote  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "pack [request.json]",
		Short: "Solve a flat rectangle pack request",
		Long: `Solve a flat rectangle pack request.

The request is read from the file argument, or from stdin when the argument
is "-" or missing:

  {"rects": [[w, h], ...],
   "wires": [{"source": 0, "dest": 1,
              "location_source": [x, y], "location_dest": [x, y]}],
   "constraints": [false, true, ...]}

The response is written as JSON to stdout (or -o):

  {"success": true, "positions": [[x, y], ...], "size": [w, h], ...}

A failed solve still prints a response, with "success": false and an error
code, and exits non-zero.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			return c.runPack(cmd.Context(), input, output, remote, noCache, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "response file (default: stdout)")
	cmd.Flags().StringVar(&remote, "remote", "", "solve on a boardpack server instead (e.g. http://localhost:8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runPack(ctx context.Context, input, output, remote string, noCache bool, stdout io.Writer) error {
	req, err := readPackRequest(input)
	if err != nil {
		return err
	}

	var resp board.PackResponse
	if remote != "" {
		resp, err = client.New(remote, nil).Pack(ctx, req)
		if err != nil && resp.Code == "" {
			return err
		}
	} else {
		runner, err := c.newRunner(ctx, noCache)
		if err != nil {
			return fmt.Errorf("initialize runner: %w", err)
		}
		defer runner.Close()
		resp = runner.Pack(ctx, req, c.cfg.PackOptions())
	}

	w := stdout
	if output != "" {
		if err := errors.ValidateOutputPath(output); err != nil {
			return err
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	if !resp.Success {
		return errors.New(errors.Code(resp.Code), "%s", resp.Error)
	}
	c.Logger.Debug("packed", "rects", len(req.Rects), "status", resp.Status, "objective", resp.Objective)
	return nil
}

// readPackRequest decodes a request from path, or from stdin for "-".
func readPackRequest(path string) (board.PackRequest, error) {
	var r io.Reader
	if path == "-" {
		if stdinIsTerminal() {
			return board.PackRequest{}, errors.New(errors.ErrCodeInvalidInput, "no request file given and stdin is a terminal")
		}
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return board.PackRequest{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "request %s", path)
			}
			return board.PackRequest{}, err
		}
		defer f.Close()
		r = f
	}

	var req board.PackRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode pack request")
	}
	return req, nil
}
