package compose_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/boardpack/pkg/compose"
	"github.com/matzehuels/boardpack/pkg/pack"
)

func ExampleCompose() {
	// Two clusters, each a 2x1 part wired to a 1x1 part.
	wire := func(a, b int) pack.Wire {
		return pack.Wire{Src: a, Dst: b, SrcAt: pack.Point{X: 1, Y: 0.5}, DstAt: pack.Point{X: 0.5, Y: 0.5}}
	}
	req := compose.Request{
		Rects:    []pack.Rect{{W: 2, H: 1}, {W: 1, H: 1}, {W: 2, H: 1}, {W: 1, H: 1}},
		Names:    []string{"U1", "C1", "U2", "C2"},
		Wires:    []pack.Wire{wire(0, 1), wire(2, 3)},
		Clusters: [][]int{{0, 1}, {2, 3}},
		Edge:     []bool{false, false},
	}
	res, err := compose.Compose(context.Background(), req, compose.Options{})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, g := range res.Groups {
		fmt.Printf("%s: %.1f x %.1f %s\n", g.Representative, g.Size.W, g.Size.H, g.Status)
	}
	fmt.Printf("half perimeter: %.1f\n", res.Width+res.Height)
	fmt.Println("degraded:", res.Degraded)
	// Output:
	// U1: 2.0 x 2.0 optimal
	// U2: 2.0 x 2.0 optimal
	// half perimeter: 6.0
	// degraded: false
}
