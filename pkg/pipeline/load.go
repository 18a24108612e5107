package pipeline

import (
	"io"

	"github.com/matzehuels/boardpack/pkg/board"
)

// Load reads a board file. The raw bytes are returned for callers that
// echo or hash the input.
func Load(path string) (*board.Board, []byte, error) {
	return board.ImportBoard(path)
}

// LoadReader reads a board from r in the given format.
func LoadReader(r io.Reader, format board.Format) (*board.Board, error) {
	return board.ReadBoard(r, format)
}
