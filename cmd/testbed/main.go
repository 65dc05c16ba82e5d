// Command testbed serves the sample form page for trying formfetch by hand.
// Usage: go run ./cmd/testbed [port [wasm-dir]]
// Default port: 8080. With wasm-dir the page dispatches through the
// WebAssembly build found there (formfetch.wasm plus wasm_exec.js).
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/raysh454/formfetch/internal/logging"
	"github.com/raysh454/formfetch/internal/testbed"
)

func main() {
	cfg := testbed.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}
	if len(os.Args) > 2 {
		cfg.WasmDir = os.Args[2]
	}

	fmt.Println("===========================================")
	fmt.Println("   formfetch testbed")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Printf("Open http://localhost:%d/ and use the form triples.\n", cfg.Port)
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  - GET    /<file>   static files from", cfg.DocumentRoot)
	fmt.Println("  - ANY    /echo     request echoed back as JSON")
	fmt.Println("  - POST   /upload   multipart upload into", cfg.UploadsDir)
	fmt.Println("  - DELETE /<file>   removes a file under the document root")
	if cfg.WasmDir != "" {
		fmt.Println("  - GET    /wasm/*   WebAssembly build from", cfg.WasmDir)
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server := testbed.New(cfg, logging.NewStdoutLogger("testbed"))
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
