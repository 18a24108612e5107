// Package render turns layouts into viewable artifacts.
//
// # Formats
//
//   - SVG: the board with cluster boxes, components and wires
//   - PDF: the board on page one, one page per cluster after it, and a
//     QR code carrying the run identifier
//   - XLSX: placement, cluster and summary sheets for review in a spreadsheet
//   - JSON: the layout itself
//
// All of them are produced by [Render]:
//
//	svg, err := render.Render(ctx, layout, render.FormatSVG, render.Options{})
//
// # Connectivity diagrams
//
// [DOT] writes the board's connectivity graph with one subgraph per cluster,
// and [DOTToSVG] lays it out with Graphviz:
//
//	dot := render.DOT(b, clusters, classifier)
//	svg, err := render.DOTToSVG(ctx, dot)
//
// Layout coordinates put the origin at the bottom-left corner; the SVG and
// PDF writers flip the y axis.
package render

import (
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/errors"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// Formats lists every supported format.
var Formats = []string{FormatSVG, FormatPDF, FormatXLSX, FormatJSON}

// DefaultScale is the SVG pixel count per board unit.
const DefaultScale = 20.0

// Options tunes the drawn formats. The zero value draws wires and cluster
// boxes at DefaultScale.
type Options struct {
	Scale float64 `json:"scale,omitempty"`
	// HideWires and HideClusters drop those layers from SVG and PDF.
	HideWires    bool `json:"hide_wires,omitempty"`
	HideClusters bool `json:"hide_clusters,omitempty"`
}

func (o Options) scale() float64 {
	if o.Scale > 0 {
		return o.Scale
	}
	return DefaultScale
}

// ValidateFormat reports UNSUPPORTED for unknown formats.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeUnsupported, "unsupported format %q (must be one of: svg, pdf, xlsx, json)", format)
	}
	return nil
}

// Render produces one artifact.
func Render(ctx context.Context, l *board.Layout, format string, opts Options) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatSVG:
		data = SVG(l, opts)
	case FormatPDF:
		data, err = PDF(l, opts)
	case FormatXLSX:
		data, err = XLSX(l)
	case FormatJSON:
		data, err = JSON(l)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}
