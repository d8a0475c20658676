// Package config provides the two configuration surfaces the server needs:
// spec-mandated flags (port, filename, thread count — spec.md §6) parsed
// from the command line, and ambient performance tuning (buffer flush
// thresholds) loaded the way the teacher loads its settings, from an
// optional YAML file with .env expansion.
package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

// Defaults for the server-facing flags, per spec.md §6.
const (
	DefaultPort     uint16 = 1926
	DefaultFilename string = "data.kv"
	DefaultThreads  uint16 = 4
)

// ServerFlags holds the three flags spec.md §6 names for server startup.
type ServerFlags struct {
	Port     uint16
	Filename string
	Threads  uint16
}

// ParseServerFlags parses --port, --filename, and --threads from args (pass
// os.Args[1:] in production). Flag parsing itself is an external-collaborator
// concern (spec.md §1); this just wires spf13/pflag to the three names the
// spec defines.
func ParseServerFlags(args []string) (ServerFlags, error) {
	fs := pflag.NewFlagSet("aether-kv-server", pflag.ContinueOnError)
	port := fs.Uint16("port", DefaultPort, "TCP port to listen on (127.0.0.1)")
	filename := fs.String("filename", DefaultFilename, "path to the write-ahead log file")
	threads := fs.Uint16("threads", DefaultThreads, "number of worker pool threads")

	if err := fs.Parse(args); err != nil {
		return ServerFlags{}, err
	}

	return ServerFlags{Port: *port, Filename: *filename, Threads: *threads}, nil
}

// Tuning holds performance knobs the wire spec never names: how large the
// writer's buffer may grow, and how long after the last flush an append
// forces another one (checked on each append; there is no background timer).
// These are the direct descendants of the teacher's BATCH_SIZE and
// SYNC_INTERVAL config fields.
type Tuning struct {
	BatchSize           uint32 `yaml:"BATCH_SIZE"`
	SyncIntervalSeconds uint32 `yaml:"SYNC_INTERVAL"`
}

// DefaultTuning matches the teacher's defaults for a lightly-loaded engine.
func DefaultTuning() Tuning {
	return Tuning{BatchSize: 4096, SyncIntervalSeconds: 5}
}

// LoadTuning reads tuning values from path if it exists, first expanding
// any ${VAR} references against an optional .env file loaded from the
// current directory, exactly as the teacher's LoadConfig does. A missing
// file is not an error — DefaultTuning is returned instead, since these
// knobs are ambient, not spec-mandated.
func LoadTuning(path string) (Tuning, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("config: no .env file found or error loading it", "error", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("config: no tuning file found, using defaults", "path", path)
			return DefaultTuning(), nil
		}
		return Tuning{}, err
	}

	tuning := DefaultTuning()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &tuning); err != nil {
		return Tuning{}, err
	}
	return tuning, nil
}
