// Command har creates, appends to, extracts and lists hierarchical archive
// containers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harlib/har"
	"github.com/harlib/har/container"
)

// version is the semantic version (set via -ldflags).
var version = "dev"

// opMode is the selected archive operation. The four mode flags are
// mutually exclusive; dispatch happens in one place on this tag.
type opMode uint8

const (
	modeCreate opMode = iota
	modeAppend
	modeExtract
	modeList
)

var (
	flagCreate  bool
	flagAppend  bool
	flagExtract bool
	flagList    bool

	flagFile      string
	flagDirectory string
	flagCompress  bool
	flagLevel     int
	flagShuffle   bool
	flagAlgo      string
	flagVerbose   bool

	rootCmd = &cobra.Command{
		Use:   "har (-c|-r|-x|-t) -f <archive> [flags] [sources... | key]",
		Short: "Archive files and directories into hierarchical containers",
		Long: `har archives files and directories into a hierarchical container file
and restores them.

Exactly one operation is required:

  -c   create an archive from one or more files/directories
  -r   append files/directories to an existing archive;
       entries that already exist are skipped, never overwritten
  -x   extract the whole archive, or a single entry key if one is given
  -t   list the entry keys of an archive, sorted

Examples:

  har -c -f tree.har ./src ./docs README.md
  har -r -f tree.har ./src
  har -c -f tree.har -z --zopt 9 --shuffle ./data
  har -x -f tree.har -C out/
  har -x -f tree.har src/main.go
  har -t -f tree.har`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
)

func init() {
	f := rootCmd.Flags()
	f.BoolVarP(&flagCreate, "create", "c", false, "create a new archive")
	f.BoolVarP(&flagAppend, "append", "r", false, "append to an existing archive")
	f.BoolVarP(&flagExtract, "extract", "x", false, "extract from an archive")
	f.BoolVarP(&flagList, "list", "t", false, "list archive contents")

	f.StringVarP(&flagFile, "file", "f", "", "archive container file (required)")
	f.StringVarP(&flagDirectory, "directory", "C", ".", "target directory for extraction")
	f.BoolVarP(&flagCompress, "compress", "z", false, "compress file payloads")
	f.IntVar(&flagLevel, "zopt", 6, "compression level (0-9)")
	f.BoolVar(&flagShuffle, "shuffle", false, "apply the byte-shuffle filter before compression")
	f.StringVar(&flagAlgo, "algo", "gzip", "compression codec (gzip|zstd|lz4)")
	f.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.MarkFlagsOneRequired("create", "append", "extract", "list")
	rootCmd.MarkFlagsMutuallyExclusive("create", "append", "extract", "list")
	_ = rootCmd.MarkFlagRequired("file")
}

func run(cmd *cobra.Command, args []string) error {
	logger := newLogger(flagVerbose)
	ctx := cmd.Context()

	switch selectMode() {
	case modeCreate:
		return runBuild(ctx, logger, false, args)
	case modeAppend:
		return runBuild(ctx, logger, true, args)
	case modeExtract:
		return runExtract(ctx, logger, args)
	case modeList:
		return runList(cmd, args)
	default:
		return errors.New("no operation selected")
	}
}

func selectMode() opMode {
	switch {
	case flagAppend:
		return modeAppend
	case flagExtract:
		return modeExtract
	case flagList:
		return modeList
	default:
		return modeCreate
	}
}

func runBuild(ctx context.Context, logger *slog.Logger, appendMode bool, sources []string) error {
	if len(sources) == 0 {
		return errors.New("at least one source file or directory is required")
	}

	codec := container.CodecNone
	if flagCompress {
		var err error
		codec, err = container.ParseCodec(flagAlgo)
		if err != nil {
			return err
		}
	}

	b := har.NewBuilder(
		har.BuildWithLogger(logger),
		har.BuildWithCompression(codec, flagLevel),
		har.BuildWithShuffle(flagShuffle && flagCompress),
	)

	var (
		stats har.BuildStats
		err   error
	)
	if appendMode {
		stats, err = b.Append(ctx, flagFile, sources)
	} else {
		stats, err = b.Create(ctx, flagFile, sources)
	}
	logger.Info("done", "stored", stats.Stored, "skipped", stats.Skipped, "failed", stats.Failed)
	if err != nil {
		return fmt.Errorf("archive %s: %w", flagFile, err)
	}
	return nil
}

func runExtract(ctx context.Context, logger *slog.Logger, args []string) error {
	if len(args) > 1 {
		return errors.New("extract takes at most one entry key")
	}

	c, err := container.OpenReadOnly(flagFile)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", flagFile, err)
	}
	defer c.Close()

	e := har.NewExtractor(har.ExtractWithLogger(logger))
	if len(args) == 1 {
		return e.ExtractOne(ctx, c, args[0], flagDirectory)
	}

	stats, err := e.ExtractAll(ctx, c, flagDirectory)
	logger.Info("done", "extracted", stats.Extracted, "failed", stats.Failed)
	return err
}

func runList(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return errors.New("list takes no positional arguments")
	}

	c, err := container.OpenReadOnly(flagFile)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", flagFile, err)
	}
	defer c.Close()

	for _, key := range har.List(c) {
		fmt.Fprintln(cmd.OutOrStdout(), key)
	}
	return nil
}

// newLogger builds the CLI logger and bridges it into the slog interface
// the library takes.
func newLogger(verbose bool) *slog.Logger {
	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	l := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:           level,
		ReportTimestamp: false,
	})
	return slog.New(l)
}
