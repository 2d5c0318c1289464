package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/stasautomadic/templatesync"
	"github.com/stasautomadic/templatesync/internal/draft"
)

// Version information (can be overridden at build time with -ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

const defaultCleanupInterval = 10 * time.Minute

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = serve(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("templatesyncd %s (%s)\n", version, commit)
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(args []string) error {
	configPath := "templatesync.yaml"
	if len(args) > 0 {
		configPath = args[0]
	}

	cfg, err := templatesync.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "templatesyncd",
	})

	var drafts *draft.Store
	if cfg.DraftDBPath != "" {
		drafts, err = draft.Open(cfg.DraftDBPath)
		if err != nil {
			return err
		}
		defer drafts.Close()
	}

	srv := newServer(cfg, logger, drafts)

	stop := make(chan struct{})
	defer close(stop)
	srv.startCleanup(defaultCleanupInterval, stop)

	logger.Info("listening", "addr", cfg.ListenAddr, "company", cfg.CompanyID)
	return http.ListenAndServe(cfg.ListenAddr, srv.routes())
}

func printUsage() {
	fmt.Println(`templatesyncd - template personalization editor backend

Usage:
  templatesyncd serve [config.yaml]   Start the editor server
  templatesyncd version               Print version information
  templatesyncd help                  Show this help`)
}
