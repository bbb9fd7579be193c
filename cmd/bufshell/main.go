package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/tuannm99/novabuf/internal"
	"github.com/tuannm99/novabuf/internal/bufferpool"
	"github.com/tuannm99/novabuf/internal/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bufshell: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) (err error) {
	flags := pflag.NewFlagSet("bufshell", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "YAML config file")
	flags.Int("pool-size", 0, "number of frames (overrides bufferpool.size)")
	flags.String("policy", "", "replacement policy: clock or lru")
	flags.String("backend", "", "storage backend: os or mem")
	flags.String("workdir", "", "directory holding the page file")
	flags.String("file", "", "page file name")
	flags.String("log-level", "", "debug, info, warn or error")
	oneShot := flags.StringArrayP("exec", "e", nil, "run a command and exit (repeatable)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	v := internal.NewViper()
	if *configPath != "" {
		v.SetConfigFile(*configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	for key, flag := range map[string]string{
		"bufferpool.size":   "pool-size",
		"bufferpool.policy": "policy",
		"storage.backend":   "backend",
		"storage.workdir":   "workdir",
		"storage.file":      "file",
		"log.level":         "log-level",
	} {
		if flags.Changed(flag) {
			if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
				return err
			}
		}
	}

	cfg, err := internal.FromViper(v)
	if err != nil {
		return err
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	backend, err := storage.GetBackend(cfg.Storage.Backend)
	if err != nil {
		return err
	}
	fs, err := storage.NewFs(backend)
	if err != nil {
		return err
	}
	file, err := storage.OpenOrCreate(fs, cfg.Storage.Workdir, cfg.Storage.File)
	if err != nil {
		return err
	}
	bm, err := bufferpool.NewFromConfig(cfg, logger)
	if err != nil {
		return multierr.Append(err, file.Close())
	}
	// the pool writes back into the file, so it closes first
	defer func() {
		err = multierr.Combine(err, bm.Close(), file.Close())
	}()

	logger.Info("bufshell: ready",
		"file", file.Filename(), "pages", file.NumPages(),
		"pool_size", bm.Size(), "policy", bm.Policy().String(), "backend", backend.String())

	sh := &shell{bm: bm, file: file, out: os.Stdout}

	if len(*oneShot) > 0 {
		for _, line := range *oneShot {
			if err := sh.exec(line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
		}
		return nil
	}

	return repl(sh)
}

func repl(sh *shell) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "novabuf> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Fprintln(sh.out, "type help for commands")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Fprintln(sh.out, "^C")
			continue
		}
		if err != nil {
			// EOF
			fmt.Fprintln(sh.out)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := sh.exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
}
