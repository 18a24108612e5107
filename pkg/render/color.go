package render

import "fmt"

type rgb struct{ R, G, B int }

func (c rgb) hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// palette colours components by cluster.
var palette = []rgb{
	{76, 175, 80},  // green
	{33, 150, 243}, // blue
	{255, 152, 0},  // orange
	{156, 39, 176}, // purple
	{0, 188, 212},  // cyan
	{244, 67, 54},  // red
	{255, 235, 59}, // yellow
	{121, 85, 72},  // brown
}

var unplacedColor = rgb{200, 200, 200}

func clusterColor(ci int) rgb {
	if ci < 0 {
		return unplacedColor
	}
	return palette[ci%len(palette)]
}
