package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/ironsheep/leafmetrics/internal/config"
	"github.com/ironsheep/leafmetrics/internal/dataset"
	"github.com/ironsheep/leafmetrics/internal/features"
	"github.com/ironsheep/leafmetrics/internal/imaging"
	"github.com/ironsheep/leafmetrics/internal/logging"
	"github.com/ironsheep/leafmetrics/internal/measure"
	"github.com/ironsheep/leafmetrics/internal/recordstore"
	"github.com/ironsheep/leafmetrics/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type options struct {
	configPath string
	logLevel   string
	force      bool
	record     bool
	version    bool
	help       bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "leafmetrics: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var opts options
	flags := pflag.NewFlagSet("leafmetrics", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	flags.BoolVar(&opts.force, "force", false, "sync: save every record, even unchanged ones")
	flags.BoolVar(&opts.record, "record", false, "measure: print the full record instead of the features")
	flags.BoolVarP(&opts.version, "version", "v", false, "print version information")
	flags.BoolVarP(&opts.help, "help", "h", false, "print this help message")

	if err := flags.Parse(args); err != nil {
		usage(os.Stderr, flags)
		return err
	}

	cmd, rest := "serve", flags.Args()
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}
	switch {
	case opts.version || cmd == "version":
		fmt.Fprintf(stdout, "leafmetrics %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return nil
	case opts.help || cmd == "help":
		usage(stdout, flags)
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.force {
		cfg.Sync.Force = true
	}

	// stdout belongs to the MCP stream and to command output
	log, err := logging.New(os.Stderr, cfg.Log.Level, logging.Format(cfg.Log.Format))
	if err != nil {
		return err
	}
	pipeline, err := measure.New(cfg.Measure, measure.WithLogger(logging.Component(log, "measure")))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		return serve(cfg, pipeline, log)
	case "measure":
		if len(rest) != 1 {
			return errors.New("measure takes exactly one photo")
		}
		return measurePhoto(rest[0], pipeline, opts.record, log, stdout)
	case "sync":
		if len(rest) != 1 {
			return errors.New("sync takes exactly one images directory")
		}
		return syncDataset(ctx, rest[0], cfg, pipeline, log, stdout)
	case "clear":
		if len(rest) != 1 {
			return errors.New("clear takes exactly one node name")
		}
		return clearNode(ctx, features.Node(rest[0]), cfg, log)
	default:
		return fmt.Errorf("unknown command %q (run leafmetrics --help)", cmd)
	}
}

func usage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "leafmetrics - leaf morphometrics from photos on a white A4 sheet")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: leafmetrics [options] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve             MCP server over stdin/stdout (default)")
	fmt.Fprintln(w, "  measure <photo>   print the features of one photo as JSON")
	fmt.Fprintln(w, "  sync <images>     refresh the records of <images>/<species>/<photo>")
	fmt.Fprintln(w, "  clear <node>      drop a measurement from every stored record")
	fmt.Fprintln(w, "  version           print version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s_<SECTION>_<KEY>  override any configuration key,\n", config.EnvPrefix)
	fmt.Fprintf(w, "                          e.g. %s_LOG_LEVEL=debug\n", config.EnvPrefix)
}

func serve(cfg *config.Config, p *measure.Pipeline, log zerolog.Logger) error {
	store, err := recordstore.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	log.Info().Str("version", Version).Str("commit", GitCommit).Msg("leafmetrics MCP server starting")
	srv := server.New(p,
		server.WithLogger(logging.Component(log, "server")),
		server.WithRecordStore(store))
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func measurePhoto(path string, p *measure.Pipeline, full bool, log zerolog.Logger, w io.Writer) error {
	photo, err := imaging.LoadPhoto(path)
	if err != nil {
		return err
	}
	fs := features.New(photo, p, features.WithLogger(logging.Component(log, "features")))

	if full {
		rec, err := fs.ToRecord()
		if err != nil {
			return err
		}
		data, err := rec.Encode()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	feats, err := fs.GetFeatures()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(feats)
}

func syncDataset(ctx context.Context, root string, cfg *config.Config, p *measure.Pipeline, log zerolog.Logger, w io.Writer) error {
	store, err := recordstore.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	syncer := dataset.NewSyncer(p, store, dataset.Options{
		Force:      cfg.Sync.Force,
		Workers:    cfg.Sync.Workers,
		SummaryDir: cfg.Sync.SummaryDir,
		Logger:     logging.Component(log, "dataset"),
	})
	report, err := syncer.Sync(ctx, root)
	if err != nil {
		return err
	}

	photos, saved, failed := report.Counts()
	fmt.Fprintf(w, "%d photos, %d records saved, %d failed in %s\n", photos, saved, failed, report.Duration.Round(time.Millisecond))
	for _, sp := range report.Species {
		for _, res := range sp.Photos {
			if res.Failed() {
				fmt.Fprintf(w, "  %s: %s\n", res.Key, res.Error)
			}
		}
	}
	return nil
}

func clearNode(ctx context.Context, node features.Node, cfg *config.Config, log zerolog.Logger) error {
	if !features.Valid(node) {
		return fmt.Errorf("unknown node %q", node)
	}
	store, err := recordstore.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := dataset.Clear(ctx, store, node, log)
	if err != nil {
		return err
	}
	log.Info().
		Str("node", string(node)).
		Strs("also", nodeStrings(features.Downstream(node))).
		Int("records", n).
		Msg("cleared")
	return nil
}

func nodeStrings(ns []features.Node) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = string(n)
	}
	return out
}
