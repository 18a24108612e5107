package pack_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/boardpack/pkg/pack"
)

func ExamplePack() {
	// A 2x1 part wired from its centre to the centre of a 1x1 part.
	p := pack.Problem{
		Rects: []pack.Rect{{W: 2, H: 1}, {W: 1, H: 1}},
		Wires: []pack.Wire{{Src: 0, Dst: 1, SrcAt: pack.Point{X: 1, Y: 0.5}, DstAt: pack.Point{X: 0.5, Y: 0.5}}},
		Edge:  []bool{false, false},
	}
	sol, err := pack.Pack(context.Background(), p, pack.Options{})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("status:", sol.Status)
	fmt.Printf("box: %.1f x %.1f\n", sol.Width, sol.Height)
	fmt.Printf("wire: %.2f\n", sol.WireLength)
	fmt.Printf("objective: %.2f\n", sol.Objective)
	// Output:
	// status: optimal
	// box: 2.0 x 2.0
	// wire: 1.00
	// objective: 12.00
}
