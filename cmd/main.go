package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nerclient/internal/config"
	"nerclient/internal/recognizer"
	"nerclient/internal/render"

	"github.com/spf13/cobra"
)

var (
	errNoInput          = errors.New("no sentence or file to process")
	errProcessingFailed = errors.New("some inputs failed")
)

type app struct {
	overrides config.Config
	file      string
	output    string
	stdout    io.Writer
	stderr    io.Writer
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()

	if err != nil {
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}

	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	return cmd.ExecuteContext(ctx)
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nerclient [flags] [sentence...]",
		Short: "nerclient extracts LOC, ORG and PER entities from sentences and text files via a remote NER service",
		Example: `  nerclient -e http://localhost:30500/ner/bert/normal "康龙化成(03759)拟续聘安永华明为2020年度境内会计师事务所"
  nerclient -b stanford -c distsim -f news.txt`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&a.overrides.Endpoint, "endpoint", "e", "", "endpoint of the NER service (env NER_ENDPOINT)")
	flags.StringVarP(&a.overrides.Backend, "backend", "b", "", "backend: direct or stanford (env NER_BACKEND)")
	flags.StringVarP(&a.overrides.Classifier, "classifier", "c", "",
		"Stanford classifier: 7class, 4class, 3class or distsim (env NER_CLASSIFIER)")
	flags.StringVar(&a.overrides.StanfordEndpoint, "stanford-endpoint", "",
		"endpoint of the Stanford NER service (env NER_STANFORD_ENDPOINT)")
	flags.StringVar(&a.overrides.Encoding, "encoding", "", "encoding of the input file (env NER_ENCODING)")
	flags.DurationVar(&a.overrides.Timeout, "timeout", 0, "timeout of one backend call (env NER_TIMEOUT)")
	flags.IntVar(&a.overrides.Concurrency, "concurrency", 0, "backend calls in flight per file (env NER_CONCURRENCY)")
	flags.DurationVar(&a.overrides.MinInterval, "min-interval", 0,
		"minimum time between the starts of two backend calls (env NER_MIN_INTERVAL)")
	flags.StringVar(&a.overrides.MergeSchemaPath, "schema", "", "YAML merge schema (env NER_MERGE_SCHEMA)")
	flags.StringVar(&a.overrides.LogLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	flags.StringVarP(&a.file, "file", "f", "", "text file with one sentence per line")
	flags.StringVarP(&a.output, "output", "o", string(render.FormatJSON), "output format: json or text")

	return cmd
}

func (a *app) run(ctx context.Context, sentences []string) error {
	start := time.Now()
	log := newLogger(a.stderr, slog.LevelInfo)

	cfg, err := config.LoadConfig()
	if err == nil {
		cfg, err = cfg.Override(a.overrides)
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return err
	}

	log = newLogger(a.stderr, cfg.SlogLevel())

	format := render.Format(a.output)
	if format != render.FormatJSON && format != render.FormatText {
		err = fmt.Errorf("%w: unknown output format %q", recognizer.ErrConfiguration, a.output)
		log.ErrorContext(ctx, "Failed to load config",
			"error", err,
			"output", a.output)

		return err
	}

	if len(sentences) == 0 && a.file == "" {
		log.ErrorContext(ctx, "Sentence or file is required",
			"error", errNoInput)

		return errNoInput
	}

	r, err := cfg.NewRecognizer(log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize recognizer",
			"error", err,
			"backend", cfg.Backend,
			"classifier", cfg.Classifier)

		return err
	}
	log.InfoContext(ctx, "Recognizer is initialized",
		"backend", cfg.Backend,
		"endpoint", recognizerEndpoint(cfg),
		"classifier", cfg.Classifier,
		"concurrency", cfg.Concurrency,
		"minInterval", cfg.MinInterval)

	failed := 0

	for i, sentence := range sentences {
		result, recognizeErr := r.RecognizeSentence(ctx, sentence)
		if recognizeErr != nil {
			failed++
			log.ErrorContext(ctx, "Failed to recognize sentence",
				"error", recognizeErr,
				"sentenceIndex", i)

			continue
		}

		if err = render.Write(a.stdout, format, result); err != nil {
			return err
		}
	}

	if a.file != "" {
		result, recognizeErr := r.RecognizeFile(ctx, a.file, cfg.Encoding)
		if recognizeErr != nil {
			failed++
			log.ErrorContext(ctx, "Failed to recognize file",
				"error", recognizeErr,
				"path", a.file,
				"encoding", cfg.Encoding)
		} else if err = render.Write(a.stdout, format, result); err != nil {
			return err
		}
	}

	log.InfoContext(ctx, "Processing is finished",
		"sentences", len(sentences),
		"file", a.file,
		"failed", failed,
		"elapsedSeconds", time.Since(start).Seconds())

	if failed > 0 {
		return fmt.Errorf("%w: %d", errProcessingFailed, failed)
	}

	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func recognizerEndpoint(cfg config.Config) string {
	if recognizer.Backend(cfg.Backend) == recognizer.BackendStanford {
		return cfg.StanfordEndpoint
	}

	return cfg.Endpoint
}
