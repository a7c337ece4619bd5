package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/bbox-editor-mcp/internal/config"
	"github.com/ironsheep/bbox-editor-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "bbox-editor-mcp - MCP server for bounding-box annotations")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage: bbox-editor-mcp [options]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment variables:")
	fmt.Fprintf(out, "  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Fprintf(out, "  %s=:8080    Serve over HTTP instead of stdio\n", config.EnvHTTPAddr)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Without --http the server communicates via MCP protocol over stdin/stdout.")
	fmt.Fprintln(out, "Configure it in your MCP client.")
}

func main() {
	var (
		showVersion bool
		configPath  string
		httpAddr    string
	)
	flag.BoolVar(&showVersion, "version", false, "Print version information")
	flag.BoolVar(&showVersion, "v", false, "Print version information (shorthand)")
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file (default "+config.DefaultConfigFile+" when present)")
	flag.StringVar(&httpAddr, "http", "", "Listen address for the HTTP transport, e.g. :8080")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("bbox-editor-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}

	if cfg.Debug() {
		log.Printf("BBox Editor MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Image directory %s, default format %s", cfg.ImageDir(), cfg.Format)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg)
	if cfg.HTTPAddr != "" {
		err = srv.ListenAndServe(ctx, cfg.HTTPAddr)
	} else {
		err = srv.Run(ctx)
	}
	if err != nil && ctx.Err() == nil {
		log.Fatalf("Server error: %v", err)
	}
}
