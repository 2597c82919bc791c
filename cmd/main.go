package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/jbvmio/fstream"
	"github.com/jbvmio/fstream/log"
)

const helpText = `usage
  fstream --file={FILENAME}

--help            print this help
--file={FILENAME} process this file
--in, -           process stdin
--out             print to stdout
--compress        will gzip the output
--decompress      will ungzip the input
--follow          keep reading the file as it grows
--config={FILE}   tuning file (yaml)
--log-level       debug|info|warn|error

`

// shutdownGrace bounds the wait for the pipeline to wind down once the run
// is cancelled. A read blocked on a terminal stdin never returns.
var shutdownGrace = 2 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	// a second signal gets the default behaviour and kills the process.
	context.AfterFunc(ctx, stop)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	cfg         fstream.Configuration
	help        bool
	cfgFile     string
	logLevel    string
	logLevelSet bool
}

func run(ctx context.Context, args []string, getenv func(string) string, stdin io.Reader, stdout, stderr io.Writer) int {
	base, err := basePath(getenv)
	if err != nil {
		fmt.Fprintln(stderr, "ERR:", err)
		return 1
	}
	o, err := parseArgs(args, base)
	switch {
	case errors.Is(err, fstream.ErrUsage):
		if errors.Cause(err) != err {
			fmt.Fprintln(stderr, err)
		}
		fmt.Fprintln(stderr, "Incorrect usage!!")
		fmt.Fprint(stdout, "\n"+helpText)
		return 1
	case err != nil:
		fmt.Fprintln(stderr, "ERR:", err)
		return 1
	case o.help:
		fmt.Fprint(stdout, helpText)
		return 0
	}
	if o.cfgFile != "" {
		c, err := fstream.ConfigFromFile(o.cfgFile)
		if err != nil {
			fmt.Fprintln(stderr, "ERR:", err)
			return 1
		}
		c.Apply(&o.cfg)
		if !o.logLevelSet && c.LogLevel != "" {
			o.logLevel = c.LogLevel
		}
	}

	l := log.NewZap(o.logLevel, stderr)
	done := make(chan error, 1)
	go func() {
		done <- fstream.Run(ctx, o.cfg,
			fstream.WithLogger(l),
			fstream.WithStdin(stdin),
			fstream.WithStdout(stdout),
		)
	}()
	select {
	case err = <-done:
	case <-ctx.Done():
		select {
		case err = <-done:
		case <-time.After(shutdownGrace):
			l.Warnf("pipeline did not stop within %s", shutdownGrace)
			err = ctx.Err()
		}
	}
	if err != nil {
		if o.cfg.Input == fstream.InputFollow && errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintln(stderr, "ERR:", err)
		return 1
	}
	return 0
}

func parseArgs(args []string, base string) (options, error) {
	pf := pflag.NewFlagSet(`fstream`, pflag.ContinueOnError)
	pf.SetOutput(io.Discard)
	pf.Usage = func() {}
	help := pf.Bool("help", false, "print this help")
	file := pf.String("file", "", "process this file")
	in := pf.Bool("in", false, "process stdin")
	out := pf.Bool("out", false, "print to stdout")
	compress := pf.Bool("compress", false, "will gzip the output")
	decompress := pf.Bool("decompress", false, "will ungzip the input")
	follow := pf.Bool("follow", false, "keep reading the file as it grows")
	cfgFile := pf.StringP("config", "c", "", "tuning file (yaml)")
	logLevel := pf.String("log-level", "warn", "debug|info|warn|error")
	if err := pf.Parse(args); err != nil {
		return options{}, errors.WithMessage(fstream.ErrUsage, err.Error())
	}

	o := options{
		help:        *help,
		cfgFile:     *cfgFile,
		logLevel:    *logLevel,
		logLevelSet: pf.Changed("log-level"),
	}
	if o.help {
		return o, nil
	}
	cfg := fstream.NewConfiguration()
	cfg.Decompress = *decompress
	cfg.Compress = *compress
	switch {
	case *in || hasDash(pf.Args()):
		cfg.Input = fstream.InputStdin
	case *file != "":
		cfg.Input = fstream.InputFile
		if *follow {
			cfg.Input = fstream.InputFollow
		}
		cfg.FilePath = filepath.Join(base, *file)
	default:
		return o, fstream.ErrUsage
	}
	if *out {
		cfg.Output = fstream.OutputStdout
	} else {
		cfg.Output = fstream.OutputFile
		cfg.OutputPath = fstream.DefaultOutputPath(base, cfg.Compress)
	}
	o.cfg = cfg
	return o, nil
}

// basePath returns $BASE_PATH or the working directory, made absolute.
func basePath(getenv func(string) string) (string, error) {
	base := getenv("BASE_PATH")
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "could not determine working directory")
		}
		base = wd
	}
	return filepath.Abs(base)
}

func hasDash(args []string) bool {
	for _, a := range args {
		if a == "-" {
			return true
		}
	}
	return false
}
