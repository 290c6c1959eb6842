package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/ivanvanderbyl/pdfstatement"
)

func main() {
	cmd := &cli.Command{
		Name:  "pdfstatement",
		Usage: "Extract transactions from PDF bank statements",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Input PDF file path",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: stdout)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: csv, xlsx or json (default: from output extension, else csv)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (TOML, YAML or JSON)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log per-page diagnostics",
			},
		},
		Action: extractStatement,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func extractStatement(ctx context.Context, cmd *cli.Command) error {
	inputPath := cmd.String("input")
	outputPath := cmd.String("output")

	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := pdfstatement.LoadConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	registry := pdfstatement.NewEngineRegistry(cfg)
	defer registry.Close()

	metrics, err := pdfstatement.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	pipeline := pdfstatement.NewPipeline(registry, cfg, logger, pdfstatement.WithPipelineMetrics(metrics))

	result, err := pipeline.Run(ctx, inputPath, func(m pdfstatement.Milestone) {
		fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", int(m), m)
	})
	if err != nil {
		return fmt.Errorf("failed to extract statement: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Extracted %d transactions from %d pages (quality %.2f, passed=%v)\n",
		len(result.Transactions), len(result.Pages), result.Report.Score, result.Report.Passed)
	for _, issue := range result.Report.Issues {
		fmt.Fprintf(os.Stderr, "  issue: %s\n", issue)
	}

	out := io.Writer(os.Stdout)
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	switch outputFormat(cmd.String("format"), outputPath) {
	case "xlsx":
		err = pdfstatement.WriteXLSX(out, result.Transactions)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(result)
	default:
		err = pdfstatement.WriteCSV(out, result.Transactions)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if outputPath != "" {
		fmt.Fprintf(os.Stderr, "Transactions written to %s\n", outputPath)
	}
	return nil
}

func outputFormat(format, outputPath string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".xlsx":
		return "xlsx"
	case ".json":
		return "json"
	}
	return "csv"
}
