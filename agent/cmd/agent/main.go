package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/localrank/localrank/agent/internal/compute"
	"github.com/localrank/localrank/agent/internal/config"
	"github.com/localrank/localrank/agent/internal/shipper"
	"github.com/localrank/localrank/pkg/score"
	"github.com/localrank/localrank/pkg/signals"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	name := flag.String("name", "", "business name (one-shot mode)")
	address := flag.String("address", "", "business address (one-shot mode)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env", "err", err)
	}

	if *name != "" || *address != "" {
		os.Exit(oneShot(*configPath, isFlagSet("config"), *name, *address, os.Stdout))
	}

	slog.Info("localrank-agent starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"server_endpoint", cfg.Agent.ServerEndpoint,
		"businesses", len(cfg.Agent.Businesses),
		"score_interval", cfg.Agent.ScoreInterval,
		"data_source", cfg.Agent.DataSource.Type,
	)

	src, err := signals.New(cfg.Agent.DataSource)
	if err != nil {
		slog.Error("failed to build data source", "err", err)
		os.Exit(1)
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ship := shipper.New(cfg.Agent)
	go ship.Run(ctx)

	calc := score.NewCalculator(src, cfg.Agent.FetchTimeout)
	sched := newScheduler(calc, func(r *compute.Result) { ship.Ship(r) }, cfg.Agent.Businesses)
	if len(cfg.Agent.Businesses) == 0 {
		slog.Warn("no businesses configured, agent will idle until the config changes")
	}

	// Reloads swap the business list. Data source and server settings need a restart.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			sched.setBusinesses(updated.Agent.Businesses)
			slog.Info("business list reloaded", "businesses", len(updated.Agent.Businesses))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	go sched.run(ctx, cfg.Agent.ScoreInterval)

	<-ctx.Done()
	slog.Info("localrank-agent shutting down")
}

// oneShotOutput is printed by the CLI one-shot mode.
type oneShotOutput struct {
	*score.Report
	Label string `json:"label"`
}

// oneShot scores a single business and prints the report as JSON. The data
// source comes from the config file only when -config was given explicitly;
// otherwise the simulated source is used. It returns the process exit code.
func oneShot(configPath string, useConfig bool, name, address string, out io.Writer) int {
	if err := score.ValidateInput(name, address); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	dsCfg := signals.Config{Type: signals.TypeSimulated}
	timeout := score.DefaultFetchTimeout
	if useConfig {
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		dsCfg, timeout = cfg.Agent.DataSource, cfg.Agent.FetchTimeout
	}

	src, err := signals.New(dsCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	return printReport(context.Background(), score.NewCalculator(src, timeout), name, address, out)
}

func printReport(ctx context.Context, calc calculator, name, address string, out io.Writer) int {
	rep, err := calc.Calculate(ctx, name, address)
	if err != nil {
		slog.Error("score calculation failed", "name", name, "err", err)
		fmt.Fprintln(os.Stderr, score.UserMessage)
		return 1
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(oneShotOutput{Report: rep, Label: rep.Rating.Label}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
