package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abema/probe/adapters"
	"github.com/abema/probe/core"
	"github.com/abema/probe/internal/config"
	"github.com/abema/probe/internal/file"
	istrings "github.com/abema/probe/internal/strings"
	"github.com/spf13/pflag"
)

const (
	exitOK          = 0
	exitError       = 1
	exitFailures    = 2
	exitInterrupted = 130
)

var storeKeywords = []string{"store", "save"}

type options struct {
	EndpointsFile string
	BaseURL       string
	OutDir        string
	Store         bool
	Pretty        bool
	ShowRequest   bool
	ConfigFile    string
	HeaderFile    string
	Timeout       time.Duration
	Fail          bool
	Log           struct {
		JSON bool
		File string
	}
}

type usageError struct {
	msg string
}

func (err *usageError) Error() string {
	return err.msg
}

func newFlagSet(opts *options) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("probe", pflag.ContinueOnError)
	flagSet.SortFlags = false
	flagSet.StringVarP(&opts.BaseURL, "base-url", "b", core.DefaultBaseURL, "base URL prepended to every endpoint")
	flagSet.StringVarP(&opts.OutDir, "out-dir", "o", core.DefaultOutDir, "directory for stored responses (storage mode only)")
	flagSet.BoolVarP(&opts.Store, "store", "s", false, "store bodies and metadata under --out-dir; also enabled by the positional keyword \"store\"")
	flagSet.BoolVarP(&opts.Pretty, "pretty", "p", false, "pretty-print JSON bodies echoed in storage mode")
	flagSet.BoolVarP(&opts.ShowRequest, "show-request", "v", false, "print each request (credentials redacted) before sending it")
	flagSet.StringVarP(&opts.ConfigFile, "config", "c", "", "YAML file with default option values")
	flagSet.StringVar(&opts.HeaderFile, "header-file", "", "file of extra request headers, one \"Name: value\" per line")
	flagSet.DurationVar(&opts.Timeout, "timeout", 0, "per-request timeout (0 means none)")
	flagSet.BoolVar(&opts.Fail, "fail", false, "exit with status 2 when any endpoint did not return 2xx")
	flagSet.BoolVar(&opts.Log.JSON, "log-json", false, "print status lines as JSON")
	flagSet.StringVar(&opts.Log.File, "log-file", "", "also append status lines to this file")
	return flagSet
}

// parseArgs resolves options from args, then from the --config file for flags not given explicitly.
func parseArgs(args []string, stderr io.Writer) (*options, *pflag.FlagSet, error) {
	opts := new(options)
	flagSet := newFlagSet(opts)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, flagSet, err
		}
		return nil, flagSet, &usageError{msg: err.Error()}
	}
	for _, arg := range flagSet.Args() {
		if istrings.EqualFoldIn(arg, storeKeywords) {
			opts.Store = true
			continue
		}
		if opts.EndpointsFile != "" {
			return nil, flagSet, &usageError{msg: fmt.Sprintf("unexpected argument: %s", arg)}
		}
		opts.EndpointsFile = arg
	}
	if opts.ConfigFile != "" {
		defaults, err := config.Load(opts.ConfigFile)
		if err != nil {
			return nil, flagSet, &usageError{msg: err.Error()}
		}
		if err := applyDefaults(opts, flagSet, defaults); err != nil {
			return nil, flagSet, &usageError{msg: err.Error()}
		}
	}
	if opts.EndpointsFile == "" {
		return nil, flagSet, &usageError{msg: "endpoints file must be specified"}
	}
	return opts, flagSet, nil
}

func applyDefaults(opts *options, flagSet *pflag.FlagSet, d *config.Defaults) error {
	setString := func(name string, dst *string, src *string) {
		if src != nil && !flagSet.Changed(name) {
			*dst = *src
		}
	}
	setBool := func(name string, dst *bool, src *bool) {
		if src != nil && !flagSet.Changed(name) {
			*dst = *dst || *src
		}
	}
	setString("base-url", &opts.BaseURL, d.BaseURL)
	setString("out-dir", &opts.OutDir, d.OutDir)
	setString("header-file", &opts.HeaderFile, d.HeaderFile)
	setBool("store", &opts.Store, d.Store)
	setBool("pretty", &opts.Pretty, d.Pretty)
	setBool("show-request", &opts.ShowRequest, d.ShowRequest)
	setBool("fail", &opts.Fail, d.Fail)
	setBool("log-json", &opts.Log.JSON, d.LogJSON)
	if d.Timeout != nil && !flagSet.Changed("timeout") {
		timeout, err := time.ParseDuration(*d.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in config file: %w", err)
		}
		opts.Timeout = timeout
	}
	return nil
}

func buildConfig(opts *options, stdout, stderr io.Writer) (*core.Config, error) {
	c := core.NewConfig(opts.EndpointsFile)
	c.BaseURL = opts.BaseURL
	c.Timeout = opts.Timeout
	c.Stdout = stdout
	if opts.HeaderFile != "" {
		header, err := buildRequestHeader(opts.HeaderFile)
		if err != nil {
			return nil, err
		}
		for key, values := range header {
			c.RequestHeader[key] = values
		}
	}
	if opts.Store {
		c.Recorder = adapters.LocalFileRecorder(opts.OutDir, adapters.SHA256Hex)
		if opts.Pretty {
			c.Formatter = adapters.JSONIndent
		}
	}
	if opts.ShowRequest {
		c.OnRequest = adapters.RequestPrinter(stderr)
	}
	logConfig := &adapters.ResultLogConfig{JSON: opts.Log.JSON}
	c.OnResult = adapters.ResultLogger(logConfig, stderr)
	if opts.Log.File != "" {
		c.OnResult = core.MergeOnResultHandlers(c.OnResult, adapters.FileResultLogger(&adapters.ResultLogConfig{
			Flag: log.LstdFlags,
			JSON: opts.Log.JSON,
		}, opts.Log.File))
	}
	return c, nil
}

func buildRequestHeader(name string) (http.Header, error) {
	f, err := file.Open(name)
	if err != nil {
		return nil, &usageError{msg: fmt.Sprintf("file not found: %s", name)}
	}
	defer f.Close()
	header := make(http.Header)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		s := strings.SplitN(scanner.Text(), ":", 2)
		if len(s) == 2 {
			header.Add(strings.TrimSpace(s[0]), strings.TrimSpace(s[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return header, nil
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(w, "USAGE: probe [OPTIONS] ENDPOINTS_FILE [store]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sends one authenticated GET per endpoint line (credentials from ~/.netrc).")
	fmt.Fprintln(w, "Bodies go to stdout; status lines go to stderr.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprint(w, flagSet.FlagUsages())
}

func invalidArguments(w io.Writer, flagSet *pflag.FlagSet, err error) int {
	fmt.Fprintln(w, "ERROR: invalid arguments:", err)
	fmt.Fprintln(w)
	printUsage(w, flagSet)
	return exitError
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, flagSet, err := parseArgs(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		printUsage(stderr, flagSet)
		return exitOK
	} else if err != nil {
		return invalidArguments(stderr, flagSet, err)
	}

	c, err := buildConfig(opts, stdout, stderr)
	if err != nil {
		return invalidArguments(stderr, flagSet, err)
	}
	runner, err := core.NewRunner(c)
	if err != nil {
		if core.IsConfigError(err) {
			return invalidArguments(stderr, flagSet, err)
		}
		fmt.Fprintln(stderr, "ERROR:", err)
		return exitError
	}

	summary, err := runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, "interrupted")
		return exitInterrupted
	} else if core.IsConfigError(err) {
		return invalidArguments(stderr, flagSet, err)
	} else if err != nil {
		fmt.Fprintln(stderr, "ERROR:", err)
		return exitError
	}
	if opts.Fail && summary.Failed != 0 {
		return exitFailures
	}
	return exitOK
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
