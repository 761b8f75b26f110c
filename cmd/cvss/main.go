package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/vulnmanager/internal/adapters/reporting"
	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
	"github.com/lcalzada-xor/vulnmanager/internal/core/services/cvss"
	"github.com/lcalzada-xor/vulnmanager/internal/core/services/scoring"
	"github.com/lcalzada-xor/vulnmanager/internal/telemetry"
)

// TransportCLI labels scores computed from the command line.
const TransportCLI = "cli"

func main() {
	log.SetFlags(0)
	log.SetPrefix("cvss: ")
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run scores the vector described by args and prints the result as JSON.
// It returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cvss", flag.ContinueOnError)
	fs.SetOutput(stderr)

	vector := fs.String("vector", "", "CVSS 3.1 vector; recognised metrics override the defaults")
	pdfPath := fs.String("pdf", "", "Write a PDF score card to this path")
	htmlPath := fs.String("html", "", "Write an HTML score card to this path")
	fallback := fs.Bool("fallback", false, "Print the neutral result instead of failing on invalid input")

	metricFlags := make(map[domain.Metric]*string, len(domain.MetricOrder))
	for _, def := range domain.Catalog() {
		codes := make([]string, 0, len(def.Options))
		for _, opt := range def.Options {
			codes = append(codes, opt.Code)
		}
		name := strings.ToLower(string(def.Key))
		metricFlags[def.Key] = fs.String(name, "", fmt.Sprintf("%s (%s)", def.Name, strings.Join(codes, "|")))
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	telemetry.InitMetrics()
	ctx := domain.WithRequestInfo(context.Background(), domain.RequestInfo{
		RequestID: uuid.NewString(),
		Transport: TransportCLI,
	})
	svc := scoring.NewScoringService(nil)

	input := make(map[string]string)
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *vector != "" {
		for metric, code := range cvss.Resolve(*vector) {
			input[string(metric)] = code
		}
	}
	for metric, value := range metricFlags {
		if set[strings.ToLower(string(metric))] {
			input[string(metric)] = *value
		}
	}

	var res domain.ScoreResult
	switch {
	case len(input) == 0:
		res = svc.Defaults()
	case *fallback:
		var fellBack bool
		res, fellBack = svc.BuildWithFallback(ctx, input)
		if fellBack {
			fmt.Fprintln(stderr, "cvss: invalid metrics, printing the neutral result")
		}
	default:
		var err error
		res, err = svc.Build(ctx, input)
		if err != nil {
			fmt.Fprintf(stderr, "cvss: %v\n", err)
			return 1
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(stderr, "cvss: %v\n", err)
		return 1
	}

	if *pdfPath != "" {
		if err := writeScoreCard(reporting.NewPDFExporter(), res, *pdfPath); err != nil {
			fmt.Fprintf(stderr, "cvss: %v\n", err)
			return 1
		}
	}
	if *htmlPath != "" {
		if err := writeScoreCard(reporting.NewHTMLExporter(), res, *htmlPath); err != nil {
			fmt.Fprintf(stderr, "cvss: %v\n", err)
			return 1
		}
	}
	return 0
}

func writeScoreCard(exporter ports.ScoreCardExporter, res domain.ScoreResult, path string) error {
	data, err := exporter.ExportScoreCard(res)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write score card: %w", err)
	}
	return nil
}
