// Copyright 2025 The MentionServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the mention suggestion server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

MentionServe finds the mention token under a caret ("@jo" in "Hello @jo") and
suggests entries for it from a set of named buckets, each a Patricia trie built
from a bucket file. It can operate as a MessagePack IPC server for chat editors,
or as a CLI application for testing and debugging.

# Usage

Start the server with default settings:

	mentionserve

Use a custom data directory and enable debug mode:

	mentionserve -data /path/to/buckets -d

Run in CLI mode for interactive testing:

	mentionserve -c -limit 5

The data directory holds one file per bucket: people.toml, company.msgpack,
tags.txt and so on. The bucket is named after the file. Changed files are
reloaded while the server runs unless -no-watch is given.

# Configuration

Runtime configuration is managed through a TOML file:

	[tokenizer]
	minimum_implicit_length = 4
	max_keywords = 1
	explicit_chars = "@"

	[server]
	max_limit = 32
	default_limit = 10
	bucket_timeout_ms = 250

The config file is automatically created with defaults if it doesn't exist.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. See package server
for the message types.

	{"id": "req1", "t": "Hello @jo", "c": 9, "l": 5}

# Command Line Flags

	-config string
	    Path to a config file (default: user config dir)
	-data string
	    Directory containing the bucket files (default from config)
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-limit int
	    Number of suggestions to return (default from config)
	-no-watch
	    Do not reload bucket files when they change
	-rebuild-config
	    Overwrite the config file (-config or the default path) with defaults and exit
	-version
	    Show current version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/mentionserve/internal/cli"
	"github.com/bastiangx/mentionserve/internal/logger"
	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/dictionary"
	"github.com/bastiangx/mentionserve/pkg/query"
	"github.com/bastiangx/mentionserve/pkg/server"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/bastiangx/mentionserve/pkg/tokenize"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0-beta"
	gh      = "https://github.com/bastiangx/mentionserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

type options struct {
	configPath    string
	dataDir       string
	debug         bool
	cli           bool
	limit         int
	noWatch       bool
	rebuildConfig bool
}

// main parses the flags and only manages the flow; run does the wiring.
func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	var opts options
	showVersion := flag.Bool("version", false, "Show current version")
	flag.StringVar(&opts.configPath, "config", "", "Path to a config file")
	flag.StringVar(&opts.dataDir, "data", "", "Directory containing the bucket files (default from config)")
	flag.BoolVar(&opts.debug, "d", false, "Toggle debug mode")
	flag.BoolVar(&opts.cli, "c", false, "Run CLI -- useful for testing and debugging")
	flag.IntVar(&opts.limit, "limit", 0, fmt.Sprintf("Number of suggestions to return (default %d)", defaultConfig.CLI.DefaultLimit))
	flag.BoolVar(&opts.noWatch, "no-watch", false, "Do not reload bucket files when they change")
	flag.BoolVar(&opts.rebuildConfig, "rebuild-config", false, "Overwrite the config file with defaults and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup(opts.debug)

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

// run wires the packages for the server or the CLI. Deferred cleanup runs
// before main exits on error.
func run(opts options) error {
	if opts.rebuildConfig {
		path, err := config.RebuildConfigFile(opts.configPath)
		if err != nil {
			return fmt.Errorf("failed to rebuild config: %w", err)
		}
		log.Printf("Rebuilt config at %s", path)
		return nil
	}

	appConfig, activePath, err := config.LoadConfigWithPriority(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.Debugf("Using config: %s", config.GetActiveConfigPath(activePath))

	tokCfg, err := appConfig.Tokenizer()
	if err != nil {
		return fmt.Errorf("invalid tokenizer config: %w", err)
	}
	tok, err := tokenize.NewWordTokenizer(tokCfg)
	if err != nil {
		return fmt.Errorf("failed to create tokenizer: %w", err)
	}
	source := query.NewTokenSource(tok)

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		return fmt.Errorf("failed to initialize path resolver: %w", err)
	}
	requested := appConfig.Dict.Dir
	if opts.dataDir != "" {
		requested = opts.dataDir
	}
	resolvedDataDir, err := pathResolver.GetDataDir(requested, "*.toml", "*.msgpack", "*.mp", "*.txt", "*.tsv")
	if err != nil {
		return fmt.Errorf("failed to resolve data dir: %w", err)
	}
	log.Debugf("Using data dir at: %s", resolvedDataDir)

	receiver := suggest.NewIndexReceiver(appConfig.Server.MaxLimit, appConfig.Dict.CacheSize)
	srv := server.NewServer(source, receiver, appConfig, resolvedDataDir)
	if err := srv.Reload(context.Background()); err != nil {
		log.Warnf("Failed to load buckets: %v. Running with no buckets...", err)
	}

	if appConfig.Dict.Watch && !opts.noWatch {
		watcher, err := dictionary.NewWatcher(resolvedDataDir, 200*time.Millisecond, srv.ApplyBucket)
		if err != nil {
			log.Warnf("Bucket hot reload disabled: %v", err)
		} else {
			watcher.Start()
			defer watcher.Close()
		}
	}

	if opts.cli {
		n := opts.limit
		if n < 1 {
			n = appConfig.CLI.DefaultLimit
		}
		inputHandler := cli.NewInputHandler(source, receiver, n, appConfig.CLI.CursorMarker)
		if err := inputHandler.Start(); err != nil {
			return fmt.Errorf("CLI error: %w", err)
		}
		return nil
	}

	showStartupInfo(resolvedDataDir, receiver.Buckets())
	if err := srv.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func printVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ MentionServe ] Finds @mentions and serves suggestions for them")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(dataDir string, buckets []string) {
	l := logger.New("")
	l.SetLevel(log.InfoLevel)
	l.Infof("Version: %s", Version)
	l.Infof("Process ID: [ %d ]", os.Getpid())
	l.Infof("data dir: ( %s )", dataDir)
	l.Infof("buckets: %v", buckets)
	l.Info("status: ready")
}
