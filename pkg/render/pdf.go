package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/matzehuels/boardpack/pkg/board"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	qrSize       = 28.0
	drawAreaTop  = marginTop + headerHeight + 8.0
)

// runTag is what the PDF's QR code encodes.
type runTag struct {
	Board  string  `json:"board,omitempty"`
	RunID  string  `json:"run_id,omitempty"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PDF writes a placement sheet: the whole board first, then one page per
// cluster.
func PDF(l *board.Layout, opts Options) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(l.Board, true)

	pdf.AddPage()
	if err := drawBoardPage(pdf, l, opts); err != nil {
		return nil, err
	}
	for i, cb := range l.Clusters {
		pdf.AddPage()
		drawClusterPage(pdf, l, i, cb)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfFrame fits a w x h region into the drawing area.
type pdfFrame struct {
	scale, ox, oy, h float64
}

func newPDFFrame(w, h, reserveRight float64) pdfFrame {
	drawW := pageWidth - marginLeft - marginRight - reserveRight
	drawH := pageHeight - drawAreaTop - marginBottom
	scale := math.Min(drawW/math.Max(w, 1e-9), drawH/math.Max(h, 1e-9))
	return pdfFrame{
		scale: scale,
		ox:    marginLeft + (drawW-w*scale)/2,
		oy:    drawAreaTop,
		h:     h,
	}
}

func (f pdfFrame) rect(pdf *fpdf.Fpdf, x, y, w, h float64, style string) {
	pdf.Rect(f.ox+x*f.scale, f.oy+(f.h-y-h)*f.scale, w*f.scale, h*f.scale, style)
}

func (f pdfFrame) line(pdf *fpdf.Fpdf, x1, y1, x2, y2 float64) {
	pdf.Line(f.ox+x1*f.scale, f.oy+(f.h-y1)*f.scale, f.ox+x2*f.scale, f.oy+(f.h-y2)*f.scale)
}

func (f pdfFrame) label(pdf *fpdf.Fpdf, x, y, w, h float64, text string) {
	pw, ph := w*f.scale, h*f.scale
	if pw < 6 || ph < 3 {
		return
	}
	pdf.SetFont("Helvetica", "", math.Min(8, ph*1.8))
	tw := pdf.GetStringWidth(text)
	if tw > pw-1 {
		return
	}
	pdf.SetXY(f.ox+x*f.scale+(pw-tw)/2, f.oy+(f.h-y-h)*f.scale+ph/2-2)
	pdf.CellFormat(tw, 4, text, "", 0, "C", false, 0, "")
}

func header(pdf *fpdf.Fpdf, title, stats string) {
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight-qrSize, headerHeight, title, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	pdf.CellFormat(pageWidth-marginLeft-marginRight-qrSize, 5, stats, "", 0, "L", false, 0, "")
}

func drawBoardPage(pdf *fpdf.Fpdf, l *board.Layout, opts Options) error {
	name := l.Board
	if name == "" {
		name = "board"
	}
	header(pdf, fmt.Sprintf("%s (%.2f x %.2f %s)", name, l.Width, l.Height, l.Units),
		fmt.Sprintf("Components: %d placed of %d | Clusters: %d | Utilization: %.1f%% | Wire length: %.2f %s",
			l.Stats.Placed, l.Stats.Components, l.Stats.Clusters, l.Stats.Utilization*100, l.Stats.WireLength, l.Units))

	if err := drawRunTag(pdf, l); err != nil {
		return err
	}

	f := newPDFFrame(l.Width, l.Height, qrSize+5)
	pdf.SetFillColor(244, 241, 232)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	f.rect(pdf, 0, 0, l.Width, l.Height, "FD")

	pdf.SetLineWidth(0.2)
	for _, c := range l.Components {
		if !c.Placed {
			continue
		}
		col := clusterColor(c.Cluster)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		f.rect(pdf, c.X, c.Y, c.W, c.H, "FD")
	}

	if !opts.HideClusters {
		pdf.SetDrawColor(40, 40, 40)
		pdf.SetLineWidth(0.3)
		pdf.SetDashPattern([]float64{1.5, 1}, 0)
		for _, cb := range l.Clusters {
			f.rect(pdf, cb.X, cb.Y, cb.W, cb.H, "D")
		}
		pdf.SetDashPattern(nil, 0)
	}

	if !opts.HideWires {
		pdf.SetDrawColor(192, 57, 43)
		pdf.SetLineWidth(0.2)
		for _, s := range l.Wires {
			f.line(pdf, s.A.X, s.A.Y, s.B.X, s.B.Y)
		}
	}

	pdf.SetTextColor(0, 0, 0)
	for _, c := range l.Components {
		if c.Placed {
			f.label(pdf, c.X, c.Y, c.W, c.H, c.Ref)
		}
	}
	return pdf.Error()
}

func drawClusterPage(pdf *fpdf.Fpdf, l *board.Layout, i int, cb board.ClusterBox) {
	title := fmt.Sprintf("Cluster %d: %s (%.2f x %.2f %s)", i+1, cb.Seed, cb.W, cb.H, l.Units)
	stats := fmt.Sprintf("Members: %d | Status: %s", len(cb.Members), cb.Status)
	if cb.Representative != "" {
		stats += " | Largest: " + cb.Representative
	}
	if cb.Edge {
		stats += " | On board edge"
	}
	header(pdf, title, stats)

	f := newPDFFrame(cb.W, cb.H, 0)
	pdf.SetFillColor(250, 250, 250)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.4)
	f.rect(pdf, 0, 0, cb.W, cb.H, "FD")

	col := clusterColor(i)
	for _, ref := range cb.Members {
		c, ok := l.Find(ref)
		if !ok || !c.Placed {
			continue
		}
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.2)
		f.rect(pdf, c.X-cb.X, c.Y-cb.Y, c.W, c.H, "FD")
		f.label(pdf, c.X-cb.X, c.Y-cb.Y, c.W, c.H, c.Ref)
	}
}

func drawRunTag(pdf *fpdf.Fpdf, l *board.Layout) error {
	data, err := json.Marshal(runTag{Board: l.Board, RunID: l.RunID, Width: l.Width, Height: l.Height})
	if err != nil {
		return err
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("generate QR code: %w", err)
	}
	name := "run-tag"
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions(name, pageWidth-marginRight-qrSize, marginTop, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}
