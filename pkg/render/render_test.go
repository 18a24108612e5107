package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/boardpack/pkg/board"
	"github.com/matzehuels/boardpack/pkg/cluster"
	"github.com/matzehuels/boardpack/pkg/errors"
	"github.com/matzehuels/boardpack/pkg/netgraph"
	"github.com/matzehuels/boardpack/pkg/pack"
)

func sampleLayout() *board.Layout {
	return &board.Layout{
		Board:  "demo",
		RunID:  "3f1c9a52-0000-4000-8000-000000000000",
		Units:  "mm",
		Width:  6,
		Height: 4,
		Components: []board.Placement{
			{Ref: "U1", Footprint: "QFN-16", Kind: "major", X: 0, Y: 0, W: 4, H: 4, Cluster: 0, Placed: true},
			{Ref: "C1", Footprint: "C0603", Kind: "capacitor", X: 4, Y: 0, W: 2, H: 1, Cluster: 0, Placed: true},
			{Ref: "R9", Kind: "resistor", Cluster: -1},
		},
		Clusters: []board.ClusterBox{
			{Seed: "U1", Representative: "QFN-16", Members: []string{"U1", "C1"}, W: 6, H: 4, Status: "optimal"},
		},
		Wires: []board.Segment{
			{From: "U1", To: "C1", A: pack.Point{X: 2, Y: 2}, B: pack.Point{X: 5, Y: 0.5}},
		},
		Orphans: []string{"R9"},
		Stats:   board.Stats{Components: 3, Placed: 2, Clusters: 1, Wires: 1, Utilization: 0.75, WireLength: 4.5},
	}
}

func TestSVG(t *testing.T) {
	l := sampleLayout()
	svg := string(SVG(l, Options{}))

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatalf("not an svg document:\n%s", svg)
	}
	if got := strings.Count(svg, `class="component"`); got != 2 {
		t.Errorf("component rects = %d, want 2 (unplaced R9 skipped)", got)
	}
	if !strings.Contains(svg, `id="cluster-0"`) || !strings.Contains(svg, `class="wire"`) {
		t.Error("cluster box or wire missing")
	}
	// 6x4 board plus a one-unit margin at 20px per unit.
	if !strings.Contains(svg, `viewBox="0 0 160.0 120.0"`) {
		t.Errorf("unexpected viewBox in %s", svg[:120])
	}
	// U1's top edge sits at board height 4, i.e. y = margin.
	if !strings.Contains(svg, `id="c-U1" class="component" x="20.00" y="20.00"`) {
		t.Error("U1 not flipped into svg coordinates")
	}

	bare := string(SVG(l, Options{HideWires: true, HideClusters: true, Scale: 10}))
	if strings.Contains(bare, `class="wire"`) || strings.Contains(bare, `id="cluster-0"`) {
		t.Error("hidden layers still drawn")
	}
}

func TestPDF(t *testing.T) {
	data, err := PDF(sampleLayout(), Options{})
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("missing PDF header: %q", data[:8])
	}
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(sampleLayout())
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 3 || got[0] != sheetPlacements {
		t.Errorf("sheets = %v", got)
	}
	rows, err := f.GetRows(sheetPlacements)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("placement rows = %d, want header + 3", len(rows))
	}
	if rows[1][0] != "U1" || rows[1][3] != "U1" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if v, _ := f.GetCellValue(sheetClusters, "C2"); v != "U1 C1" {
		t.Errorf("cluster members = %q", v)
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	l := sampleLayout()
	for _, format := range Formats {
		data, err := Render(ctx, l, format, Options{})
		if err != nil {
			t.Errorf("%s: %v", format, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("%s: empty artifact", format)
		}
	}

	if _, err := Render(ctx, l, "png", Options{}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("png: got %v, want UNSUPPORTED", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Render(cancelled, l, FormatSVG, Options{}); err == nil {
		t.Error("cancelled context should fail")
	}
}

func TestDOT(t *testing.T) {
	b := &board.Board{
		Components: []board.Component{
			{Ref: "U1", Width: 4, Height: 4},
			{Ref: "C1", Width: 1, Height: 1},
			{Ref: "R7", Width: 1, Height: 1},
		},
		Connections: []netgraph.Pair{{A: "U1", B: "C1"}},
	}
	res := cluster.Result{
		Clusters: []cluster.Cluster{{Seed: "U1", Members: []string{"U1", "C1"}}},
		Orphans:  []string{"R7"},
	}
	dot := DOT(b, res, nil)

	for _, want := range []string{
		`subgraph "cluster_0"`,
		`"U1" [shape=box`,
		`"C1" [shape=ellipse`,
		`"R7" [shape=ellipse, fillcolor="#c8c8c8"]`,
		`"U1" -- "C1";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	svg, err := DOTToSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("DOTToSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("graphviz output is not svg")
	}
}
