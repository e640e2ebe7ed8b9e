// Package main is the upcase CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/upcase/internal/cli"
	"github.com/hyperjump/upcase/internal/config"
	"github.com/hyperjump/upcase/internal/convert"
	"github.com/hyperjump/upcase/internal/extract"
	"github.com/hyperjump/upcase/internal/generate"
	"github.com/hyperjump/upcase/internal/models"
	"github.com/hyperjump/upcase/internal/server"
	"github.com/hyperjump/upcase/internal/storage"
	"github.com/hyperjump/upcase/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/upcase/config.yaml"

const shutdownTimeout = 10 * time.Second

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if present, and a missing default file yields the built-in
// defaults. Returns the config and the path that was loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	var err error
	switch command {
	case "server":
		err = runServer(args)
	case "convert":
		err = runConvert(args, os.Stdout)
	case "extract":
		err = runExtract(args, os.Stdout)
	case "status":
		err = runStatus(args, os.Stdout)
	case "config":
		err = runConfig(args, os.Stdout)
	case "version", "--version", "-v":
		fmt.Printf("upcase version %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		}
		os.Exit(1)
	}
}

// app holds the components shared by the server command.
type app struct {
	workspace *storage.Workspace
	converter *convert.Converter
	janitor   *storage.Janitor
	server    *server.Server
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	ws := storage.NewWorkspace(cfg.Storage.UploadDir, cfg.Storage.OutputDir, storage.WithLogger(logger))
	if err := ws.EnsureDirs(); err != nil {
		return nil, err
	}
	conv := newConverter(cfg, ws, logger)
	janitor := storage.NewJanitor(ws,
		cfg.Storage.StaleAfter.Std(),
		cfg.Storage.SweepInterval.Std(),
		storage.WithJanitorLogger(logger))
	return &app{
		workspace: ws,
		converter: conv,
		janitor:   janitor,
		server:    server.NewServer(conv, ws, cfg, logger),
	}, nil
}

func newConverter(cfg *config.Config, store convert.OutputStore, logger *zap.Logger) *convert.Converter {
	gen := generate.NewGenerator(
		generate.WithFontPath(cfg.Convert.FontPath),
		generate.WithLogger(logger))
	return convert.New(store,
		convert.WithLogger(logger),
		convert.WithExtractor(extract.NewExtractor(extract.WithLogger(logger))),
		convert.WithGenerator(gen))
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (extracted text previews, stored uploads, etc.)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize components", zap.Error(err))
		return err
	}

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go a.janitor.Run(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		return err
	}

	logger.Info("Shutting down...")
	sweepCancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.server.Stop(ctx)
}

// reorderArgs moves flags that follow positional arguments to the front so that
// "upcase convert file.pdf --out dir" parses the same as the flags-first form.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runConvert(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outDir := fs.String("out", ".", "directory for the converted file")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: upcase convert [flags] <file>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one file")
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := zap.NewNop()
	if cfg.Debug || *debug {
		if logger, err = utils.NewLogger(true); err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer logger.Sync()
	}

	dst, err := newConverter(cfg, nil, logger).ConvertFile(context.Background(), fs.Arg(0), *outDir)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, dst)
	return err
}

func runExtract(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: upcase extract [flags] <file>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one file")
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		return err
	}

	path := fs.Arg(0)
	text, docFormat, err := extract.NewExtractor().Extract(path)
	if err != nil {
		return err
	}
	return cli.WriteExtract(stdout, cli.NewExtractResult(path, docFormat, text), format)
}

func runStatus(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	serverURL := fs.String("server", "http://localhost:3000", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		return err
	}
	status, err := statusViaHTTP(*serverURL)
	if err != nil {
		return err
	}
	return cli.WriteStatus(stdout, status, format)
}

// runConfig handles "config init", which writes the built-in defaults to a file.
func runConfig(args []string, stdout io.Writer) error {
	if len(args) == 0 || args[0] != "init" {
		return errors.New(`usage: upcase config init [--config path] [--force]`)
	}
	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	path := fs.String("config", "config.yaml", "config file to write")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	if !*force {
		if _, err := os.Stat(*path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", *path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(*path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := config.Save(*path, config.Default()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(stdout, "wrote %s\n", *path)
	return err
}

func statusViaHTTP(serverURL string) (*models.Status, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s models.Status
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `upcase - Uppercase the text of DOCX, PDF and PPTX documents

Usage:
  upcase server [flags]             Start the HTTP server
  upcase convert [flags] <file>     Convert a local file without the server
  upcase extract [flags] <file>     Print the text extracted from a document
  upcase status [flags]             Show the status of a running server
  upcase config init [flags]        Write a config file with the defaults
  upcase version                    Show version
  upcase help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/upcase/config.yaml, or ./config.yaml if present)
  --debug            Enable debug logging

Convert Flags:
  --config string    Config file path (font and logging settings)
  --out string       Output directory (default: current directory)
  --debug            Enable debug logging

Extract Flags:
  --output string    Output format: text or json (default: text)

Status Flags:
  --server string    Server URL (default: http://localhost:3000)
  --output string    Output format: text or json (default: text)

Config Init Flags:
  --config string    File to write (default: config.yaml)
  --force            Overwrite an existing file

Examples:
  upcase server
  upcase convert report.docx --out ./converted
  upcase extract --output json slides.pptx
  upcase status --output json
  upcase config init --config /usr/local/etc/upcase/config.yaml`)
}
