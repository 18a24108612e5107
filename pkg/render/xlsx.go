package render

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/boardpack/pkg/board"
)

const (
	sheetPlacements = "Placements"
	sheetClusters   = "Clusters"
	sheetSummary    = "Summary"
)

// XLSX writes a placement report workbook.
func XLSX(l *board.Layout) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetPlacements); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetClusters, sheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	placements := [][]any{{"Ref", "Footprint", "Kind", "Cluster", "X", "Y", "W", "H", "Placed"}}
	for _, c := range l.Components {
		cluster := ""
		if c.Cluster >= 0 && c.Cluster < len(l.Clusters) {
			cluster = l.Clusters[c.Cluster].Seed
		}
		placements = append(placements, []any{c.Ref, c.Footprint, c.Kind, cluster, c.X, c.Y, c.W, c.H, c.Placed})
	}
	if err := writeRows(f, sheetPlacements, placements, bold); err != nil {
		return nil, err
	}

	clusters := [][]any{{"Seed", "Largest", "Members", "X", "Y", "W", "H", "Edge", "Status"}}
	for _, cb := range l.Clusters {
		clusters = append(clusters, []any{
			cb.Seed, cb.Representative, strings.Join(cb.Members, " "),
			cb.X, cb.Y, cb.W, cb.H, cb.Edge, cb.Status,
		})
	}
	if err := writeRows(f, sheetClusters, clusters, bold); err != nil {
		return nil, err
	}

	s := l.Stats
	summary := [][]any{
		{"Metric", "Value"},
		{"Board", l.Board},
		{"Run", l.RunID},
		{"Units", l.Units},
		{"Width", l.Width},
		{"Height", l.Height},
		{"Components", s.Components},
		{"Placed", s.Placed},
		{"Clusters", s.Clusters},
		{"Wires", s.Wires},
		{"Component area", s.ComponentArea},
		{"Board area", s.BoardArea},
		{"Utilization", s.Utilization},
		{"Wire length", s.WireLength},
		{"Objective", s.Objective},
		{"Degraded", l.Degraded},
		{"Orphans", strings.Join(l.Orphans, " ")},
		{"Ambiguous", strings.Join(l.Ambiguous, " ")},
	}
	if err := writeRows(f, sheetSummary, summary, bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// writeRows writes rows from A1 down and bolds the first one.
func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}
