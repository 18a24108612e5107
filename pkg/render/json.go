package render

import (
	"bytes"

	"github.com/matzehuels/boardpack/pkg/board"
)

// JSON encodes the layout as indented JSON.
func JSON(l *board.Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := board.WriteLayout(l, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
