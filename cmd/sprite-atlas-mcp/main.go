package main

import (
	"flag"
	"fmt"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"

	"github.com/ironsheep/sprite-atlas-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-version", "version":
			fmt.Printf("sprite-atlas-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("sprite-atlas-mcp - MCP server for sprite atlas reconstruction")
			fmt.Println()
			fmt.Println("Usage: sprite-atlas-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version        Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println("  -v=N             Log verbosity (glog)")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SPRITE_ATLAS_LOG_LEVEL=debug    Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	flagutil.Parse()
	// stdout is for MCP protocol
	flag.Set("logtostderr", "true")

	if os.Getenv("SPRITE_ATLAS_LOG_LEVEL") == "debug" {
		flag.Set("v", "2")
		glog.Infof("Sprite Atlas MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	server.Version = Version
	srv := server.New()
	if err := srv.Run(); err != nil {
		glog.Fatalf("Server error: %v", err)
	}
}
