// Command loadtest generates a large synthetic workload directly against
// the storage engine, bypassing the network stack entirely. It is the Go
// counterpart of the original's gen_bigdata binary: a data-generation
// utility for exercising recovery and scan at scale, not a client of the
// server.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/jassi-singh/aether-kv/internal/config"
	"github.com/jassi-singh/aether-kv/internal/engine"
	"github.com/jassi-singh/aether-kv/internal/keyval"
)

func main() {
	count := pflag.Int("count", 524288, "number of sequential keys to insert")
	path := pflag.String("filename", "bigdata.kv", "path to the log file to generate")
	pflag.Parse()

	_ = os.Remove(*path)

	eng, err := engine.Open(*path, config.DefaultTuning())
	if err != nil {
		log.Fatalf("failed to open engine: %v", err)
	}
	defer eng.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	start := time.Now()

	for i := uint64(0); i < uint64(*count); i++ {
		key := keyval.KeyFromUint64(i)
		value := genValue(rng)
		if err := eng.Put(key, value); err != nil {
			log.Fatalf("put failed at key %d: %v", i, err)
		}
		if i > 0 && i%65536 == 0 {
			fmt.Printf("inserted %d keys (%s elapsed)\n", i, time.Since(start))
		}
	}

	fmt.Printf("done: inserted %d keys into %s in %s\n", *count, *path, time.Since(start))
}

// genValue fills a Value with random bytes, matching the original's
// gen_value helper.
func genValue(rng *rand.Rand) keyval.Value {
	var v keyval.Value
	rng.Read(v[:])
	return v
}
