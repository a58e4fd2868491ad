package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/davidleathers/taxid-validator/internal/infrastructure/config"
	"github.com/davidleathers/taxid-validator/internal/infrastructure/telemetry"
	"github.com/davidleathers/taxid-validator/internal/metrics"
	"github.com/davidleathers/taxid-validator/internal/service/taxid"
)

// Exit codes
const (
	exitValid   = 0
	exitInvalid = 1
	exitUsage   = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("taxid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: taxid [flags] [identifier ...]")
		fmt.Fprintln(stderr, "Validates Brazilian CPF and CNPJ numbers. Reads one identifier per line from stdin when none are given.")
		fs.PrintDefaults()
	}

	var (
		configPath = fs.String("config", "", "Path to configuration file")
		format     = fs.String("format", "", "Output format: text or json (overrides config)")
		strict     = fs.Bool("strict", false, "Reject identifiers made of one repeated digit")
		formatted  = fs.Bool("formatted", false, "Print valid identifiers with the conventional mask")
		dumpMetric = fs.Bool("metrics", false, "Write validation metrics to stderr on exit")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitUsage
	}
	applyFlags(fs, cfg, *format, *strict, *formatted, *dumpMetric)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid flags: %v\n", err)
		return exitUsage
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Fprintf(stderr, "failed to setup logger: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs, err = readLines(stdin)
		if err != nil {
			logger.Error("failed to read identifiers", zap.Error(err))
			return exitUsage
		}
	}
	if len(inputs) == 0 {
		fs.Usage()
		return exitUsage
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		logger.Error("failed to create metrics", zap.Error(err))
		return exitUsage
	}

	svc := taxid.NewService(cfg.Policy(), logger,
		taxid.WithRecorder(collector),
		taxid.WithWorkers(cfg.Batch.Workers),
	)

	report, err := svc.ValidateBatch(ctx, inputs)
	if err != nil {
		logger.Error("validation aborted", zap.Error(err))
		return exitUsage
	}

	if err := writeReport(stdout, report, cfg.Output); err != nil {
		logger.Error("failed to write results", zap.Error(err))
		return exitUsage
	}

	if cfg.Metrics.Enabled {
		if err := metrics.WriteText(stderr, reg); err != nil {
			logger.Warn("failed to write metrics", zap.Error(err))
		}
	}

	if !report.AllValid() {
		return exitInvalid
	}
	return exitValid
}

// applyFlags overrides configuration with flags that were set explicitly
func applyFlags(fs *flag.FlagSet, cfg *config.Config, format string, strict, formatted, dumpMetrics bool) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Output.Format = format
		case "strict":
			cfg.Validation.RejectRepeatedDigits = strict
		case "formatted":
			cfg.Output.Formatted = formatted
		case "metrics":
			cfg.Metrics.Enabled = dumpMetrics
		}
	})
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}

func writeReport(w io.Writer, report *taxid.Report, out config.OutputConfig) error {
	if out.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	bw := bufio.NewWriter(w)
	for _, r := range report.Results {
		shown := r.Input
		if out.Formatted && r.Valid {
			shown = r.Formatted
		}

		status := "valid"
		if !r.Valid {
			status = "invalid"
		}

		line := shown + "\t" + r.Kind.String() + "\t" + status
		if r.Code != "" {
			line += "\t" + r.Code
		}
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
