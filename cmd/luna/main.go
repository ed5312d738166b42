// Luna chess engine: UCI/UCI+ over stdin and stdout.
package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/nicolasnotcage/luna/internal/engine"
	"github.com/nicolasnotcage/luna/internal/storage"
	"github.com/nicolasnotcage/luna/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB     = flag.Int("hash", 0, "hash table size in MB (overrides saved options)")
	noStore    = flag.Bool("nostore", false, "skip the persistent option store")
)

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	opts := storage.DefaultOptions()

	var store *storage.Storage
	if !*noStore {
		var err error
		store, err = storage.OpenDefault()
		if err != nil {
			// A broken store never blocks the engine; run with defaults.
			log.Printf("option store unavailable: %v", err)
		} else {
			defer store.Close()
			if saved, err := store.LoadOptions(); err == nil {
				opts = saved
			}
		}
	}

	if *hashMB > 0 {
		opts.HashSizeMB = *hashMB
	}

	eng := engine.NewEngine(opts.HashSizeMB)
	eng.SetMaxDepth(opts.MaxDepth)
	if opts.Variant != "" {
		if err := eng.Rules().LoadVariant(opts.Variant); err != nil {
			log.Printf("saved variant %q not recognized, using standard", opts.Variant)
		}
	}

	protocol := uci.New(eng)
	if store != nil {
		protocol.SetStorage(store, opts)
	}
	protocol.Run(os.Stdin)
}
