// Package cli provides the interactive command-line interface for the
// key-value store client: it parses get/put/scan/del/close commands and
// runs them against a client.Client (spec.md §6). Generalized from the
// teacher's single-process CLI handler into a client-side REPL fronting a
// remote connection, using liner for line editing and history in place of
// a bare bufio.Scanner.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/peterh/liner"

	"github.com/jassi-singh/aether-kv/internal/client"
	"github.com/jassi-singh/aether-kv/internal/keyval"
)

// Handler drives the interactive REPL against a connected client.
type Handler struct {
	client *client.Client
	liner  *liner.State
}

// NewHandler creates a CLI handler fronting c.
func NewHandler(c *client.Client) *Handler {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	return &Handler{client: c, liner: state}
}

// Run starts the interactive command loop. It returns when the user
// issues "close" or an end-of-input is reached.
func (h *Handler) Run() error {
	defer h.liner.Close()

	fmt.Println("Aether KV client")
	fmt.Println("Commands: put <key> <value>, get <key>, scan <key1> <key2>, del <key>, close")

	for {
		line, err := h.liner.Prompt("kv-client> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return fmt.Errorf("cli: failed to read input: %w", err)
		}
		h.liner.AppendHistory(line)

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		command := strings.ToLower(parts[0])
		if command == "close" {
			slog.Info("cli: close requested by user")
			return nil
		}

		if err := h.dispatch(command, parts[1:]); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func (h *Handler) dispatch(command string, args []string) error {
	switch command {
	case "get":
		return h.handleGet(args)
	case "put":
		return h.handlePut(args)
	case "scan":
		return h.handleScan(args)
	case "del", "delete":
		return h.handleDelete(args)
	default:
		fmt.Printf("unknown command: %s\n", command)
		return nil
	}
}

func (h *Handler) handleGet(args []string) error {
	if len(args) != 1 {
		fmt.Println("usage: get <key>")
		return nil
	}
	key, err := parseKey(args[0])
	if err != nil {
		return err
	}

	value, err := h.client.Get(key)
	if err != nil {
		return err
	}
	if value == nil {
		fmt.Printf("%s => nil\n", args[0])
		return nil
	}
	fmt.Printf("%s => %s\n", args[0], formatValue(*value))
	return nil
}

func (h *Handler) handlePut(args []string) error {
	if len(args) != 2 {
		fmt.Println("usage: put <key> <value>")
		return nil
	}
	key, err := parseKey(args[0])
	if err != nil {
		return err
	}
	value, err := parseValue(args[1])
	if err != nil {
		return err
	}

	if err := h.client.Put(key, value); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func (h *Handler) handleScan(args []string) error {
	if len(args) != 2 {
		fmt.Println("usage: scan <key1> <key2>")
		return nil
	}
	key1, err := parseKey(args[0])
	if err != nil {
		return err
	}
	key2, err := parseKey(args[1])
	if err != nil {
		return err
	}

	pairs, err := h.client.Scan(key1, key2)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		fmt.Printf("%s => %s\n", formatKey(p.Key), formatValue(p.Value))
	}
	fmt.Printf("(%d rows)\n", len(pairs))
	return nil
}

func (h *Handler) handleDelete(args []string) error {
	if len(args) != 1 {
		fmt.Println("usage: del <key>")
		return nil
	}
	key, err := parseKey(args[0])
	if err != nil {
		return err
	}

	n, err := h.client.Delete(key)
	if err != nil {
		return err
	}
	fmt.Printf("OK, %d rows affected.\n", n)
	return nil
}

// parseKey interprets s as raw bytes and requires exactly KeySize of them —
// keys are never padded, matching check_key_size in the original client.
func parseKey(s string) (keyval.Key, error) {
	b := []byte(s)
	if len(b) != keyval.KeySize {
		return keyval.Key{}, fmt.Errorf("cli: key %q must be exactly %d bytes, got %d", s, keyval.KeySize, len(b))
	}
	return keyval.KeyFromBytes(b)
}

// parseValue interprets s as raw bytes right-padded with zero bytes to
// ValueSize; input longer than ValueSize is rejected, never truncated.
func parseValue(s string) (keyval.Value, error) {
	b := []byte(s)
	if len(b) > keyval.ValueSize {
		return keyval.Value{}, fmt.Errorf("cli: value exceeds %d bytes", keyval.ValueSize)
	}
	padded := make([]byte, keyval.ValueSize)
	copy(padded, b)
	return keyval.ValueFromBytes(padded)
}

func formatValue(v keyval.Value) string {
	return strings.TrimRight(string(v.Bytes()), "\x00")
}

func formatKey(k keyval.Key) string {
	return strings.TrimRight(string(k.Bytes()), "\x00")
}
