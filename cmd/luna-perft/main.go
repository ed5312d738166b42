// luna-perft sweeps the standard perft reference positions and checks
// the node counts against their published values.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/schollz/progressbar/v3"

	"github.com/nicolasnotcage/luna/internal/board"
)

type perftPosition struct {
	name     string
	fen      string
	expected []int64 // expected[d-1] = perft(d)
}

var positions = []perftPosition{
	{"startpos", board.StartFEN,
		[]int64{20, 400, 8902, 197281, 4865609}},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		[]int64{48, 2039, 97862, 4085603, 193690690}},
	{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		[]int64{14, 191, 2812, 43238, 674624}},
	{"position4", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		[]int64{6, 264, 9467, 422333, 15833292}},
	{"position5", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		[]int64{44, 1486, 62379, 2103487, 89941194}},
	{"position6", "r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
		[]int64{46, 2079, 89890, 3894594, 164075551}},
}

var (
	maxDepth   = flag.Int("depth", 4, "maximum perft depth per position (1-5)")
	cpuprofile = flag.Bool("profile", false, "write a CPU profile for the run")
)

func perft(p *board.Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	moves := p.GenerateLegalMoves()
	if depth == 1 {
		return int64(moves.Len())
	}

	var nodes int64
	for i := 0; i < moves.Len(); i++ {
		p.MakeMove(moves.Get(i))
		nodes += perft(p, depth-1)
		p.UndoMove()
	}
	return nodes
}

func main() {
	flag.Parse()

	if *cpuprofile {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	depth := *maxDepth
	if depth < 1 {
		depth = 1
	}
	if depth > 5 {
		depth = 5
	}

	failures := 0
	totalNodes := int64(0)
	start := time.Now()

	bar := progressbar.Default(int64(len(positions)*depth), "perft")

	for _, pp := range positions {
		pos, err := board.ParseFEN(pp.fen)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: bad FEN: %v\n", pp.name, err)
			os.Exit(1)
		}

		for d := 1; d <= depth; d++ {
			got := perft(pos, d)
			totalNodes += got
			_ = bar.Add(1)

			if want := pp.expected[d-1]; got != want {
				fmt.Printf("\n%s perft(%d) = %d, want %d  FAIL\n", pp.name, d, got, want)
				failures++
			}
		}
	}

	_ = bar.Close()
	elapsed := time.Since(start)

	fmt.Printf("\n%d nodes in %v (%.0f nps)\n", totalNodes, elapsed, float64(totalNodes)/elapsed.Seconds())

	if failures > 0 {
		fmt.Printf("%d perft checks failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("all perft checks passed")
}
