package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-ccnut/internal/cli"
	"github.com/goliatone/go-ccnut/pkg/prompt"
)

func main() {
	input := flag.String("input", "", "input files (doublestar glob, e.g. site/**/*.{html,tpl})")
	scopePath := flag.String("scope", "", "YAML or JSON file with scope values")
	configPath := flag.String("config", "", "configuration file (.yaml, .yml or .json)")
	query := flag.String("query", "", `query string exposed to bindings, e.g. "?page=2"`)
	outDir := flag.String("out", "", "output directory (stdout if empty)")
	watchMode := flag.Bool("watch", false, "re-link inputs when they change")
	interactive := flag.Bool("interactive", false, "prompt for plugins and missing scope values")
	serve := flag.String("serve", "", "serve the input directory on this address, linking per request")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Run(ctx, cli.Options{
		Input:       *input,
		ScopePath:   *scopePath,
		ConfigPath:  *configPath,
		Query:       *query,
		OutDir:      *outDir,
		Watch:       *watchMode,
		Interactive: *interactive,
		Serve:       *serve,
	})
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			os.Exit(130)
		}
		log.Fatalf("ccnut: %v", err)
	}
}
