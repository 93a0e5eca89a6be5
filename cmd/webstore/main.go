package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"code.byted.org/khicago/webstore"
)

const usage = `Usage: webstore [flags] <command> [args]

Commands:
  set <key> <value>   store value (parsed as JSON, else a plain string)
  get <key>           print the decoded value as JSON
  rm <key>            remove key
  has <key>           print true or false
  ls                  list every key and value
  clear               remove every key

Flags:`

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

// realMain runs the CLI and returns its exit code.
func realMain(argv []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("webstore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configFile = fs.String("config", "", "Path to webstore config JSON file")
		localPath  = fs.String("local", "", "BadgerDB directory for the local backend (overrides config)")
		backend    = fs.String("backend", "", "Backend: local, session or cookie (default from config)")
		cookie     = fs.String("cookie", "", "Initial Cookie header for the cookie backend")
		verbose    = fs.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 1
	}

	cfg := webstore.DefaultConfig()
	if *configFile != "" {
		loaded, err := webstore.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return 1
		}
		cfg = *loaded
	}
	if *localPath != "" {
		cfg.Local.Path = *localPath
	}

	zl := zap.NewNop()
	if *verbose {
		var err error
		zl, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
			return 1
		}
	}
	defer func() { _ = zl.Sync() }()

	jar := webstore.NewMemoryJar(*cookie)
	s, err := webstore.Open(&cfg,
		webstore.WithLogger(webstore.NewZapLogger(zl)),
		webstore.WithJar(jar),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open store: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = run(ctx, s, *backend, fs.Args(), stdout)
	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if b, perr := webstore.ParseBackend(orDefault(*backend, cfg.DefaultBackend)); perr == nil && b == webstore.Cookie {
		fmt.Fprintf(stdout, "Cookie: %s\n", jar.Cookie())
	}
	return 0
}

func orDefault(id, def string) string {
	if id == "" {
		return def
	}
	return id
}

func run(ctx context.Context, s webstore.Store, backend string, args []string, out io.Writer) error {
	cmd, args := args[0], args[1:]
	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s: want %d argument(s), got %d", cmd, n, len(args))
		}
		return nil
	}

	switch cmd {
	case "set":
		if err := need(2); err != nil {
			return err
		}
		return s.Set(ctx, args[0], parseValue(args[1]), backend)
	case "get":
		if err := need(1); err != nil {
			return err
		}
		v, err := s.Get(ctx, args[0], backend)
		if errors.Is(err, webstore.ErrNotFound) {
			fmt.Fprintln(out, "null")
			return nil
		}
		if err != nil {
			return err
		}
		return printValue(out, v)
	case "rm":
		if err := need(1); err != nil {
			return err
		}
		return s.Remove(ctx, args[0], backend)
	case "has":
		if err := need(1); err != nil {
			return err
		}
		ok, err := s.Has(ctx, args[0], backend)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ok)
		return nil
	case "ls":
		items, err := s.Items(ctx, backend)
		if err != nil {
			return err
		}
		for _, item := range items {
			fmt.Fprintf(out, "%s\t", item.Key)
			if err := printValue(out, item.Value); err != nil {
				return err
			}
		}
		return nil
	case "clear":
		return s.Clear(ctx, backend)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// parseValue treats the argument as JSON when it parses, else as a string.
func parseValue(arg string) any {
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return arg
	}
	return v
}

func printValue(out io.Writer, v webstore.Value) error {
	var data any
	if v != nil {
		data = v.Any()
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
