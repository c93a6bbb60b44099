package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatnoir-retrieve/internal/app"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/config"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/domain/feature"
	logpkg "github.com/kailas-cloud/chatnoir-retrieve/internal/logger"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/tableio"
	retrieveuc "github.com/kailas-cloud/chatnoir-retrieve/internal/usecase/retrieve"
	"github.com/kailas-cloud/chatnoir-retrieve/internal/version"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "noirctl:", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "noirctl",
		Usage:     "Batch retrieval against the ChatNoir search engine",
		Version:   fmt.Sprintf("%s (%s)", version.Version, version.Commit),
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			{
				Name:      "retrieve",
				Usage:     "Retrieve results for every topic and write a run file",
				ArgsUsage: " ",
				Flags: append(retrievalFlags(),
					&cli.StringFlag{
						Name:     "topics",
						Aliases:  []string{"t"},
						Usage:    "Topics file (.jsonl or .tsv with qid and query)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file, - for stdout",
						Value:   "-",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: trec or jsonl",
						Value: string(tableio.FormatTREC),
					},
					&cli.StringFlag{
						Name:  "tag",
						Usage: "Run tag for the TREC format",
						Value: tableio.DefaultRunTag,
					},
				),
				Action: func(c *cli.Context) error { return retrieveCommand(c, stderr) },
			},
			{
				Name:   "features",
				Usage:  "List feature names",
				Action: featuresCommand,
			},
			{
				Name:   "hash",
				Usage:  "Print the configuration hash used for caching",
				Flags:  retrievalFlags(),
				Action: hashCommand,
			},
		},
	}
}

func retrievalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
		&cli.StringFlag{Name: "api-key", Usage: "ChatNoir API key", EnvVars: []string{"CHATNOIR_API_KEY"}},
		&cli.StringFlag{Name: "base-url", Usage: "ChatNoir production base URL"},
		&cli.StringFlag{Name: "staging-base-url", Usage: "ChatNoir staging base URL"},
		&cli.StringSliceFlag{Name: "index", Aliases: []string{"i"}, Usage: "Index to search (repeatable)"},
		&cli.StringSliceFlag{Name: "features", Aliases: []string{"f"}, Usage: "Features to populate, e.g. ids|title_text"},
		&cli.BoolFlag{Name: "phrases", Usage: "Use phrase search"},
		&cli.IntFlag{Name: "slop", Usage: "Phrase slop (0-2)"},
		&cli.IntFlag{Name: "num-results", Aliases: []string{"n"}, Usage: "Results per query, -1 for all"},
		&cli.IntFlag{Name: "page-size", Usage: "Backend page size"},
		&cli.IntFlag{Name: "retries", Usage: "Backend retries per request"},
		&cli.DurationFlag{Name: "backoff", Usage: "Initial retry backoff"},
		&cli.BoolFlag{Name: "filter-unknown", Usage: "Drop results without a TREC id"},
		&cli.BoolFlag{Name: "staging", Usage: "Use the staging endpoint"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Show progress and debug logs"},
	}
}

// loadConfig reads --config when given and applies flag overrides on top.
func loadConfig(c *cli.Context) (config.Config, error) {
	var cfg config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	} else {
		cfg.ApplyDefaults()
	}

	if c.IsSet("api-key") {
		cfg.ChatNoir.APIKey = c.String("api-key")
	}
	if c.IsSet("base-url") {
		cfg.ChatNoir.BaseURL = c.String("base-url")
	}
	if c.IsSet("staging-base-url") {
		cfg.ChatNoir.StagingBaseURL = c.String("staging-base-url")
	}

	r := &cfg.Retrieval
	if c.IsSet("index") {
		r.Index = c.StringSlice("index")
	}
	if c.IsSet("features") {
		r.Features = c.StringSlice("features")
	}
	if c.IsSet("phrases") {
		r.Phrases = c.Bool("phrases")
	}
	if c.IsSet("slop") {
		r.Slop = c.Int("slop")
	}
	if c.IsSet("num-results") {
		n := c.Int("num-results")
		r.NumResults = &n
	}
	if c.IsSet("page-size") {
		r.PageSize = c.Int("page-size")
	}
	if c.IsSet("retries") {
		n := c.Int("retries")
		r.Retries = &n
	}
	if c.IsSet("backoff") {
		b := c.Duration("backoff").Seconds()
		r.BackoffSeconds = &b
	}
	if c.IsSet("filter-unknown") {
		r.FilterUnknown = c.Bool("filter-unknown")
	}
	if c.IsSet("staging") {
		r.Staging = c.Bool("staging")
	}
	if c.IsSet("verbose") {
		r.Verbose = c.Bool("verbose")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func retrieveCommand(c *cli.Context, stderr io.Writer) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := cfg.Settings()
	if err != nil {
		return err
	}
	format := tableio.Format(strings.ToLower(c.String("format")))
	if format != tableio.FormatTREC && format != tableio.FormatJSONL {
		return fmt.Errorf("unsupported output format %q", format)
	}

	logger, err := logpkg.NewCLILogger(s.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	topics, err := tableio.ReadTopicsFile(c.String("topics"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := app.NewStack(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	svc, err := stack.Retriever(s)
	if err != nil {
		return err
	}
	if s.Verbose {
		svc = svc.WithProgress(retrieveuc.NewWriterProgress(stderr, "chatnoir"))
	}

	logger.Debug("Retrieving",
		zap.Int("topics", topics.Len()),
		zap.String("config_hash", svc.Hash()),
		zap.String("features", s.Features.String()),
	)
	out, err := svc.Transform(ctx, topics)
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(c.App.Writer, c.String("output"))
	if err != nil {
		return err
	}
	if err := tableio.WriteResults(w, out, format, c.String("tag")); err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}

func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

func featuresCommand(c *cli.Context) error {
	for _, name := range feature.KnownNames() {
		set, err := feature.Parse(name)
		if err != nil {
			return err
		}
		suffix := ""
		switch {
		case set.Len() > 1:
			suffix = "\t= " + strings.Join(set.Names(), "|")
		case feature.StagingOnly.ContainsAny(set):
			suffix = "\t(staging only)"
		}
		fmt.Fprintf(c.App.Writer, "%s%s\n", name, suffix)
	}
	return nil
}

func hashCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := cfg.Settings()
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, s.Hash())
	return nil
}
