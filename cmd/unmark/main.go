package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	watermark "github.com/jonatw/pdf-watermark-remove"
	"github.com/jonatw/pdf-watermark-remove/logger"
	"github.com/jonatw/pdf-watermark-remove/pdfdoc"
)

const outputSuffix = "_no_watermark"

func main() {
	batchPtr := flag.String("batch", "", "Process all PDF files in directory")
	outputPtr := flag.String("output", "", "Output file path (single file mode)")
	outputDirPtr := flag.String("output-dir", "", "Output directory (batch mode)")
	recursivePtr := flag.Bool("recursive", false, "Recursively process subdirectories (batch mode)")
	parallelPtr := flag.Int("parallel", 1, "Number of files processed in parallel (batch mode)")
	overwritePtr := flag.Bool("overwrite", false, "Overwrite existing output files")
	backupPtr := flag.Bool("backup", false, "Keep a .bak copy of each original file")
	configPtr := flag.String("config", "", "Path to YAML configuration file")
	verbosePtr := flag.Bool("verbose", false, "Verbose output")
	logFilePtr := flag.String("log-file", "", "Log file path (default: stderr)")
	flag.Parse()

	zl, cleanup, err := newLogger(*verbosePtr, *logFilePtr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer cleanup()
	logger.SetLogger(engineLog(zl))

	cfg, err := watermark.LoadConfig(*configPtr)
	if err != nil {
		zl.Fatal().Err(err).Msg("failed to load configuration")
	}
	cfg.Logger = engineLog(zl)
	if *parallelPtr > 1 && *parallelPtr > cfg.MaxConcurrentDocs {
		cfg.MaxConcurrentDocs = *parallelPtr
	}

	remover := watermark.NewRemover(cfg)
	opener := pdfdoc.NewOpener()
	ctx := context.Background()

	if *batchPtr != "" {
		if flag.NArg() > 0 {
			zl.Fatal().Msg("positional input and -batch are mutually exclusive")
		}
		if *parallelPtr < 1 {
			zl.Fatal().Msg("-parallel must be at least 1")
		}
		os.Exit(runBatch(ctx, zl, remover, opener, batchOptions{
			dir:       *batchPtr,
			outputDir: *outputDirPtr,
			recursive: *recursivePtr,
			parallel:  *parallelPtr,
			overwrite: *overwritePtr,
			backup:    *backupPtr,
		}))
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: unmark [flags] input.pdf\n       unmark [flags] -batch dir")
		flag.PrintDefaults()
		os.Exit(2)
	}

	input := flag.Arg(0)
	output := *outputPtr
	if output == "" {
		output = defaultOutput(input)
	}

	outcome, err := processFile(ctx, remover, opener, input, output, *overwritePtr, *backupPtr, true)
	if err != nil {
		zl.Error().Err(err).Str("file", input).Msg("processing failed")
		os.Exit(1)
	}
	if !outcome {
		fmt.Println("no watermark found in", input)
		return
	}
	fmt.Println("watermark removed:", output)
}

type batchOptions struct {
	dir       string
	outputDir string
	recursive bool
	parallel  int
	overwrite bool
	backup    bool
}

func runBatch(ctx context.Context, zl zerolog.Logger, remover *watermark.Remover, opener watermark.Opener, opts batchOptions) int {
	files, err := collectPDFs(opts.dir, opts.recursive)
	if err != nil {
		zl.Error().Err(err).Msg("failed to scan batch directory")
		return 1
	}
	if len(files) == 0 {
		zl.Warn().Str("dir", opts.dir).Msg("no PDF files found")
		return 0
	}
	if opts.outputDir != "" {
		if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
			zl.Error().Err(err).Msg("failed to create output directory")
			return 1
		}
	}

	var g errgroup.Group
	g.SetLimit(opts.parallel)

	failed := 0
	removed := 0
	var results = make([]error, len(files))
	outcomes := make([]bool, len(files))
	for i, input := range files {
		i, input := i, input
		g.Go(func() error {
			output := batchOutput(input, opts.outputDir)
			outcome, err := processFile(ctx, remover, opener, input, output, opts.overwrite, opts.backup, false)
			results[i] = err
			outcomes[i] = outcome
			return nil
		})
	}
	g.Wait()

	for i, input := range files {
		switch {
		case results[i] != nil:
			zl.Error().Err(results[i]).Str("file", input).Msg("processing failed")
			failed++
		case outcomes[i]:
			zl.Info().Str("file", input).Msg("watermark removed")
			removed++
		default:
			zl.Info().Str("file", input).Msg("no watermark found")
		}
	}
	fmt.Printf("processed %d files: %d cleaned, %d without watermark, %d failed\n",
		len(files), removed, len(files)-removed-failed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func processFile(ctx context.Context, remover *watermark.Remover, opener watermark.Opener, input, output string, overwrite, backup, showProgress bool) (bool, error) {
	if !overwrite {
		if _, err := os.Stat(output); err == nil {
			return false, fmt.Errorf("output file %s already exists (use -overwrite)", output)
		}
	}
	if backup {
		if err := copyFile(input, input+".bak"); err != nil {
			return false, fmt.Errorf("create backup: %w", err)
		}
	}

	var events chan watermark.Event
	done := make(chan struct{})
	if showProgress {
		events = make(chan watermark.Event, 64)
		go func() {
			defer close(done)
			for ev := range events {
				fmt.Printf("\r%-40s %3.0f%%", ev.Status, ev.Fraction*100)
			}
			fmt.Println()
		}()
	} else {
		close(done)
	}

	outcome, err := remover.RemoveFile(ctx, opener, input, output, events)
	if events != nil {
		close(events)
	}
	<-done
	return outcome, err
}

func collectPDFs(dir string, recursive bool) ([]string, error) {
	var files []string
	if recursive {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isPDF(path) && !strings.Contains(path, outputSuffix) {
				files = append(files, path)
			}
			return nil
		})
		return files, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.IsDir() && isPDF(e.Name()) && !strings.Contains(e.Name(), outputSuffix) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func defaultOutput(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + outputSuffix + ext
}

func batchOutput(input, outputDir string) string {
	out := defaultOutput(input)
	if outputDir == "" {
		return out
	}
	return filepath.Join(outputDir, filepath.Base(out))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func newLogger(verbose bool, logFile string) (zerolog.Logger, func(), error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	cleanup := func() {}

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, cleanup, err
		}
		w = f
		cleanup = func() { f.Close() }
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), cleanup, nil
}

// engineLog adapts a zerolog logger to the engine's LogFunc.
func engineLog(zl zerolog.Logger) logger.LogFunc {
	return func(level logger.LogLevel, msg string, keyvals ...interface{}) {
		var ev *zerolog.Event
		switch level {
		case logger.DebugLevel:
			ev = zl.Debug()
		case logger.ErrorLevel:
			ev = zl.Error()
		default:
			ev = zl.Info()
		}
		for i := 0; i+1 < len(keyvals); i += 2 {
			key, ok := keyvals[i].(string)
			if !ok {
				continue
			}
			ev = ev.Interface(key, keyvals[i+1])
		}
		ev.Msg(msg)
	}
}
