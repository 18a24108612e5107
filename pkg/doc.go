// Package pkg provides the core libraries for boardpack PCB placement.
//
// # Overview
//
// Boardpack places the components of a board by packing rectangles. Every
// basic passive is attached to the major component it serves, each group is
// packed on its own, and the packed groups are packed again onto the board.
// Both levels trade board size against wire length.
//
// # Architecture
//
// The data flow through boardpack:
//
//	board.toml / board.json
//	         ↓
//	    [board] package (components, nets, footprints)
//	         ↓
//	    [classify] + [netgraph] (basic vs major, connectivity graph)
//	         ↓
//	    [cluster] package (one group per major component)
//	         ↓
//	    [pack] package (wire-aware branch-and-bound placement)
//	         ↓
//	    [compose] package (pack every group, then pack the groups)
//	         ↓
//	    [render] package (SVG, PDF, XLSX, JSON, DOT)
//
// # Main Packages
//
// [pack] - The placement solver. Positions rectangles without overlap,
// optionally on the boundary, minimizing a weighted sum of the board's
// half-perimeter and the Manhattan length of the wires between pins.
//
// [compose] - Hierarchical composition. Solves clusters in parallel and
// places them as rigid blocks with inter-cluster wires.
//
// [pipeline] - Load, layout and render, with caching, used by the CLI and
// the HTTP server alike.
//
// [cache] - File, redis and null caches plus the retry helpers shared by
// the network-facing code.
//
// [client] - HTTP client for a remote boardpack server.
//
// [config], [errors], [observability] - Configuration file, coded errors and
// logging hooks.
//
// # Testing
//
//	go test ./...
//
// [pack]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/pack
// [compose]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/compose
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/cache
// [client]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/client
// [config]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/observability
//
// [board]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/board
// [classify]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/classify
// [netgraph]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/netgraph
// [cluster]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/cluster
// [render]: https://pkg.go.dev/github.com/matzehuels/boardpack/pkg/render
package pkg
