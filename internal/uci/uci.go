// Package uci implements the UCI command loop plus the UCI+ extension
// that carries variant selection over the same channel.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nicolasnotcage/luna/internal/board"
	"github.com/nicolasnotcage/luna/internal/engine"
	"github.com/nicolasnotcage/luna/internal/storage"
	"github.com/nicolasnotcage/luna/internal/variant"
)

// Engine identification sent in response to "uci".
const (
	EngineName   = "Luna"
	EngineAuthor = "Nicolas Miller"
)

// UCI drives the engine through the text protocol. The command loop and
// a running search communicate only through the engine's atomic stop
// flag, the searching flag, and the done channel.
type UCI struct {
	engine   *engine.Engine
	position *board.Position

	out io.Writer

	// Persistent options, if a store is attached.
	store *storage.Storage
	opts  *storage.EngineOptions

	uciPlus bool

	searching  atomic.Bool
	searchDone chan struct{}
}

// New creates a UCI protocol handler writing to stdout.
func New(eng *engine.Engine) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		out:      os.Stdout,
	}
}

// SetOutput redirects protocol output, mainly for tests.
func (u *UCI) SetOutput(w io.Writer) {
	u.out = w
}

// SetStorage attaches a persistent option store. Options changed via
// setoption or variant are saved back to it.
func (u *UCI) SetStorage(s *storage.Storage, opts *storage.EngineOptions) {
	u.store = s
	u.opts = opts
}

func (u *UCI) printf(format string, args ...any) {
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Run reads commands until "quit" or EOF. Lines are trimmed, empty
// lines skipped, and unrecognized commands silently ignored.
func (u *UCI) Run(in io.Reader) {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := u.HandleCommand(line); quit {
			return
		}
	}
}

// HandleCommand processes one command line and reports whether the
// loop should exit.
func (u *UCI) HandleCommand(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "uci":
		u.handleUCI()
	case "uciplus":
		u.handleUCIPlus()
	case "isready":
		u.printf("readyok")
	case "ucinewgame":
		u.handleNewGame()
	case "position":
		u.handlePosition(args)
	case "go":
		u.handleGo(args)
	case "stop":
		u.handleStop()
	case "setoption":
		u.handleSetOption(args)
	case "quit":
		u.handleStop()
		return true

	// UCI+ extension commands
	case "variant":
		u.handleVariant(args)
	case "listvariants":
		u.handleListVariants()
	case "setrule":
		u.handleSetRule(args)
	case "listrules":
		u.handleListRules()

	// Debug commands
	case "d":
		fmt.Fprintln(u.out, u.position.String())
	case "perft":
		u.handlePerft(args)
	}

	return false
}

func (u *UCI) handleUCI() {
	u.printf("id name %s", EngineName)
	u.printf("id author %s", EngineAuthor)
	u.printf("")
	u.printf("option name Hash type spin default %d min %d max %d",
		engine.DefaultHashSizeMB, engine.MinHashSizeMB, engine.MaxHashSizeMB)
	u.printf("option name Depth type spin default %d min 1 max %d",
		engine.DefaultSearchDepth, engine.MaxSearchDepth)
	u.printf("uciok")
}

func (u *UCI) handleUCIPlus() {
	u.uciPlus = true
	u.printf("id name %s", EngineName)
	u.printf("id author %s", EngineAuthor)
	u.printf("uciplusok")
}

// handleNewGame resets per-game search state. The current position is
// deliberately kept; the GUI sends the next one explicitly.
func (u *UCI) handleNewGame() {
	u.engine.NewGame()
}

// handlePosition parses "position [startpos | fen <fen>] [moves ...]".
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	moveStart := len(args)
	for i, arg := range args {
		if arg == "moves" {
			moveStart = i + 1
			break
		}
	}

	switch args[0] {
	case "startpos":
		u.position = board.NewPosition()
	case "fen":
		fenEnd := moveStart
		if moveStart < len(args) {
			fenEnd = moveStart - 1 // Exclude the "moves" keyword
		}
		fenStr := strings.Join(args[1:fenEnd], " ")
		pos, err := board.ParseFEN(fenStr)
		if err != nil {
			u.printf("info string Invalid FEN: %v", err)
			return
		}
		u.position = pos
	default:
		return
	}

	// Apply the move list; stop at the first unparseable move.
	for _, moveStr := range args[moveStart:] {
		move, err := board.ParseMove(moveStr, u.position)
		if err != nil {
			u.printf("info string Invalid move: %s", moveStr)
			return
		}
		u.position.MakeMove(move)
	}
}

// goOptions holds parsed "go" command parameters.
type goOptions struct {
	depth     int
	moveTime  time.Duration
	infinite  bool
	wTime     time.Duration
	bTime     time.Duration
	wInc      time.Duration
	bInc      time.Duration
	movesToGo int
}

func (u *UCI) handleGo(args []string) {
	// One search at a time; a second "go" joins the previous search.
	u.handleStop()

	opts := parseGoOptions(args)
	limits := u.calculateLimits(opts)

	u.engine.OnInfo = func(info engine.SearchInfo) {
		u.sendInfo(info)
	}

	u.searching.Store(true)
	u.searchDone = make(chan struct{})
	pos := u.position.Copy()

	go func() {
		defer close(u.searchDone)
		defer u.searching.Store(false)

		bestMove, _ := u.engine.FindBestMove(pos, limits)

		if bestMove == board.NoMove {
			// Checkmate or stalemate: there is nothing to play.
			u.printf("bestmove 0000")
			return
		}

		// The engine searched a clone; make sure what came back is
		// playable before handing it to the GUI.
		if legal := pos.GenerateLegalMoves(); !legal.Contains(bestMove) {
			u.printf("info string Search returned illegal move %s, falling back", bestMove)
			if legal.Len() == 0 {
				u.printf("bestmove 0000")
				return
			}
			bestMove = legal.Get(0)
		}

		u.printf("bestmove %s", bestMove)
	}()
}

func parseGoOptions(args []string) goOptions {
	opts := goOptions{}

	ms := func(s string) time.Duration {
		v, _ := strconv.Atoi(s)
		return time.Duration(v) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				opts.moveTime = ms(args[i+1])
				i++
			}
		case "infinite":
			opts.infinite = true
		case "wtime":
			if i+1 < len(args) {
				opts.wTime = ms(args[i+1])
				i++
			}
		case "btime":
			if i+1 < len(args) {
				opts.bTime = ms(args[i+1])
				i++
			}
		case "winc":
			if i+1 < len(args) {
				opts.wInc = ms(args[i+1])
				i++
			}
		case "binc":
			if i+1 < len(args) {
				opts.bInc = ms(args[i+1])
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				opts.movesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}

	return opts
}

// calculateLimits turns go parameters into search limits.
func (u *UCI) calculateLimits(opts goOptions) engine.SearchLimits {
	limits := engine.SearchLimits{Depth: opts.depth}

	if opts.infinite {
		limits.Infinite = true
		return limits
	}

	switch {
	case opts.moveTime > 0:
		limits.MoveTime = int(opts.moveTime.Milliseconds())
	case opts.wTime > 0 || opts.bTime > 0:
		remaining, inc := opts.wTime, opts.wInc
		if u.position.SideToMove == board.Black {
			remaining, inc = opts.bTime, opts.bInc
		}
		limits.MoveTime = int(engine.AllocateTime(u.position, remaining, inc, opts.movesToGo).Milliseconds())
	case opts.depth > 0:
		// Depth-limited search: let the depth cap end it.
		limits.Infinite = true
	}

	return limits
}

// sendInfo writes one iteration's search info line.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	if info.Score > engine.MateScore-engine.MaxPly {
		mateIn := (engine.MateScore - info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else if info.Score < -(engine.MateScore - engine.MaxPly) {
		mateIn := -(engine.MateScore + info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	if info.Best != board.NoMove {
		parts = append(parts, "pv "+info.Best.String())
	}

	u.printf("info %s", strings.Join(parts, " "))
}

// handleStop sets the stop flag and waits for the search goroutine to
// emit its bestmove.
func (u *UCI) handleStop() {
	if u.searching.Load() {
		u.engine.Stop()
		<-u.searchDone
	}
}

// handleSetOption processes "setoption name <k> value <v>".
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		sizeMB, err := strconv.Atoi(value)
		if err != nil || u.searching.Load() {
			return
		}
		u.engine.ResizeHash(sizeMB)
		if u.opts != nil {
			u.opts.HashSizeMB = sizeMB
			u.persistOptions()
		}
	case "depth":
		depth, err := strconv.Atoi(value)
		if err != nil {
			return
		}
		u.engine.SetMaxDepth(depth)
		if u.opts != nil {
			u.opts.MaxDepth = depth
			u.persistOptions()
		}
	}
}

func (u *UCI) persistOptions() {
	if u.store == nil || u.opts == nil {
		return
	}
	if err := u.store.SaveOptions(u.opts); err != nil {
		u.printf("info string Failed to save options: %v", err)
	}
}

// handleVariant activates a variant: "variant king_of_the_hill".
func (u *UCI) handleVariant(args []string) {
	if len(args) == 0 {
		u.printf("info string variant %s", u.engine.Rules().Variant())
		return
	}

	name := args[0]
	if err := u.engine.Rules().LoadVariant(name); err != nil {
		u.printf("info string Unknown variant: %s", name)
		return
	}

	u.printf("info string variant %s enabled", name)
	if u.opts != nil {
		u.opts.Variant = name
		u.persistOptions()
	}
}

func (u *UCI) handleListVariants() {
	for _, name := range variant.AvailableVariants() {
		u.printf("info string variant %s", name)
	}
}

// handleSetRule stores rule parameters: "setrule <name> [k=v ...]".
func (u *UCI) handleSetRule(args []string) {
	if len(args) == 0 {
		return
	}

	params := make(map[string]string)
	for _, kv := range args[1:] {
		if k, v, ok := strings.Cut(kv, "="); ok {
			params[k] = v
		}
	}

	if err := u.engine.Rules().SetRule(args[0], params); err != nil {
		u.printf("info string Unknown rule: %s", args[0])
		return
	}
	u.printf("info string rule %s set", args[0])
}

func (u *UCI) handleListRules() {
	for _, name := range u.engine.Rules().ListRules() {
		u.printf("info string rule %s active", name)
	}
}

// handlePerft runs a perft count over the current position.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := u.engine.Perft(u.position, depth)
	elapsed := time.Since(start)

	u.printf("info string perft(%d) = %d in %v", depth, nodes, elapsed)
}
