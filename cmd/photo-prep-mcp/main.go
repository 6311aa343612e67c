package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ironsheep/photo-prep-mcp/internal/config"
	"github.com/ironsheep/photo-prep-mcp/internal/logging"
	"github.com/ironsheep/photo-prep-mcp/internal/ocr"
	"github.com/ironsheep/photo-prep-mcp/internal/server"
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
		case "--version", "-v", "version":
			fmt.Printf("photo-prep-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q (try --help)\n", os.Args[1])
			os.Exit(2)
		}
	}

	// stdout is for MCP protocol; the logger writes to stderr.
	logger := logging.NewLogger("photo-prep-mcp")

	cfg, err := config.Load(config.DefaultEnvFile)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	server.Version = Version
	logger.Debug("starting",
		"version", Version,
		"built", BuildTime,
		"commit", GitCommit,
		"target", fmt.Sprintf("%dx%d", cfg.Preprocess.TargetSize.X, cfg.Preprocess.TargetSize.Y),
		"accuracy", cfg.Preprocess.Detection.Accuracy)

	if info := ocr.GetOCRInfo(); info.Available {
		logger.Debug("ocr available", "tesseract", info.Version, "languages", strings.Join(info.Languages, ","))
	} else {
		logger.Warn("ocr unavailable", "error", info.Error)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Debug("shutdown complete")
}

func printHelp() {
	fmt.Println("photo-prep-mcp - MCP server that prepares camera photos for display")
	fmt.Println()
	fmt.Println("Usage: photo-prep-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from ./.env):")
	fmt.Printf("  %-28s debug, info, warn or error (default info)\n", config.EnvLogLevel)
	fmt.Printf("  %-28s target view size, WxH or N (default 2048x2048)\n", config.EnvTargetSize)
	fmt.Printf("  %-28s blur radius before detection (default 5)\n", config.EnvBlurRadius)
	fmt.Printf("  %-28s detector accuracy, high or low (default high)\n", config.EnvAccuracy)
	fmt.Printf("  %-28s expected card aspect ratio (default 1.667)\n", config.EnvAspectRatio)
	fmt.Printf("  %-28s candidates returned by the detector (default 5)\n", config.EnvMaxFeatures)
	fmt.Printf("  %-28s smallest candidate as a fraction of the image (default 0.01)\n", config.EnvMinArea)
	fmt.Printf("  %-28s perspective-correct crops (default false)\n", config.EnvApplyCorrection)
	fmt.Printf("  %-28s run OCR on preprocessed crops (default false)\n", config.EnvOCR)
	fmt.Printf("  %-28s Tesseract language (default eng)\n", config.EnvOCRLanguage)
	fmt.Printf("  %-28s Tesseract tessdata directory\n", config.EnvTessdata)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
