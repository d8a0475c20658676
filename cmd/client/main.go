// Command client is the interactive REPL for talking to a running
// key-value store server, mirroring the original's kv-client binary.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jassi-singh/aether-kv/internal/cli"
	"github.com/jassi-singh/aether-kv/internal/client"
)

func main() {
	fmt.Println("KV storage client -- v0.1")
	fmt.Print("server IP:PORT to connect: ")

	reader := bufio.NewReader(os.Stdin)
	addr, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("failed to read server address: %v", err)
	}
	addr = strings.TrimSpace(addr)

	c, err := client.Dial(addr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", addr, err)
	}
	defer c.Close()

	handler := cli.NewHandler(c)
	if err := handler.Run(); err != nil {
		log.Fatalf("client error: %v", err)
	}
}
