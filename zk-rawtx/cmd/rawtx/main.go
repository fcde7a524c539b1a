package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/rs/zerolog"
)

const usage = `rawtx

Usage:
  rawtx decode [options] [--unversioned] [--prefix] <file>
  rawtx size [options] [--unversioned] <file>
  rawtx verify [options] [--unversioned] <file> <leafhex>...
  rawtx import [options] [--unversioned] <file>
  rawtx show [options] [--posted] <id>
  rawtx list [options]
  rawtx fixture [options]
  rawtx demo [options] [--depth=<n>]
  rawtx export-verifier [options] [--depth=<n>] <out>

Options:
  -h --help            Show this screen.
  --version            Show version.
  --config=<path>      JSON config file.
  --db=<path>          Database file, overrides db_path.
  --log-level=<level>  Log level, overrides log_level.
  --unversioned        The blob has no leading version byte.
  --prefix             Decode a leading record and ignore trailing bytes.
  --posted             Show an accepted posted transaction, not a raw one.
  --depth=<n>          Tree depth of the circuit, overrides tree_depth.
`

const version = "0.1.0"

const (
	exitOK      = 0
	exitUsage   = 22
	exitFailure = 42
)

type Opts struct {
	Decode         bool
	Size           bool
	Verify         bool
	Import         bool
	Show           bool
	List           bool
	Fixture        bool
	Demo           bool
	ExportVerifier bool     `docopt:"export-verifier"`
	Unversioned    bool     `docopt:"--unversioned"`
	Prefix         bool     `docopt:"--prefix"`
	Posted         bool     `docopt:"--posted"`
	File           string   `docopt:"<file>"`
	Leafhex        []string `docopt:"<leafhex>"`
	ID             string   `docopt:"<id>"`
	Out            string   `docopt:"<out>"`
	Depth          string   `docopt:"--depth"`
	Config         string   `docopt:"--config"`
	DB             string   `docopt:"--db"`
	LogLevel       string   `docopt:"--log-level"`
	Help           bool     `docopt:"--help"`
	Version        bool     `docopt:"--version"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	var helped bool
	parser := &docopt.Parser{
		HelpHandler: func(err error, text string) {
			if err != nil {
				fmt.Fprintln(stderr, text)
				return
			}
			helped = true
			fmt.Fprintln(stdout, text)
		},
	}
	o, err := parser.ParseArgs(usage, argv, version)
	if err != nil {
		return exitUsage
	}
	if helped {
		return exitOK
	}
	var opts Opts
	if err := o.Bind(&opts); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := configFor(&opts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	c := &cli{opts: &opts, cfg: cfg, log: log, out: stdout}
	var cmdErr error
	switch {
	case opts.Decode:
		cmdErr = c.decode()
	case opts.Size:
		cmdErr = c.size()
	case opts.Verify:
		cmdErr = c.verify()
	case opts.Import:
		cmdErr = c.importTx()
	case opts.Show:
		cmdErr = c.show()
	case opts.List:
		cmdErr = c.list()
	case opts.Fixture:
		cmdErr = c.fixture()
	case opts.Demo:
		cmdErr = c.demo()
	case opts.ExportVerifier:
		cmdErr = c.exportVerifier()
	}
	if cmdErr != nil {
		log.Error().Err(cmdErr).Msg("command failed")
		if errors.Is(cmdErr, errUsage) {
			return exitUsage
		}
		return exitFailure
	}
	return exitOK
}

// configFor loads the config file and applies command line overrides.
func configFor(opts *Opts) (*Config, error) {
	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.DB != "" {
		cfg.DBPath = opts.DB
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Depth != "" {
		d, err := strconv.Atoi(opts.Depth)
		if err != nil {
			return nil, fmt.Errorf("--depth: %w", err)
		}
		cfg.TreeDepth = d
	}
	if opts.Unversioned {
		cfg.Unversioned = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
