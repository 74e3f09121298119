// Command convert turns a statement file into normalized account JSON, CSV
// or XLSX without running the API server.
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
	"path/filepath"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/export"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/extractor"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/textsource"
	"github.com/FACorreiaa/fi-statement-converter/pkg/config"
	"github.com/FACorreiaa/fi-statement-converter/pkg/money"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "convert:", err)
		os.Exit(1)
	}
}

type options struct {
	in      string
	out     string
	format  string
	pretty  bool
	verbose bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", "", `statement file to convert ("-" reads text from stdin)`)
	fs.StringVar(&opts.out, "out", "", "output file (default stdout)")
	fs.StringVar(&opts.format, "format", "json", "output format: json, csv or xlsx")
	fs.BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.in == "" {
		fs.Usage()
		return opts, errors.New("-in is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rec, err := convert(ctx, opts.in, stdin, cfg.Extraction, logger)
	if err != nil {
		return err
	}
	summarize(stderr, rec)

	w := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == export.FormatJSON && !opts.pretty {
		return json.NewEncoder(w).Encode(rec)
	}
	return export.Write(w, rec, format)
}

func convert(ctx context.Context, in string, stdin io.Reader, cfg config.ExtractionConfig, logger *slog.Logger) (*model.NormalizedRecord, error) {
	ex := extractor.New(
		extractor.WithRowTolerance(cfg.RowTolerance),
		extractor.WithLogger(logger),
	)

	if in == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return ex.ExtractBytes(data)
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	registry := textsource.NewRegistry(textsource.Config{
		PDFToTextPath: cfg.PDFToTextPath,
		TesseractPath: cfg.TesseractPath,
		OCRLanguage:   cfg.OCRLanguage,
		Timeout:       cfg.ConverterTimeout,
	}, logger)

	text, err := registry.Extract(ctx, filepath.Base(in), "", data)
	if err != nil {
		return nil, err
	}
	if len(text.Fragments) > 0 {
		return ex.ExtractFragments(text.Fragments), nil
	}
	return ex.ExtractBytes([]byte(text.Content))
}

// summarize prints one line per account.
func summarize(w io.Writer, rec *model.NormalizedRecord) {
	for i, acc := range rec.Accounts {
		balance := model.ZeroAmount
		switch {
		case acc.Summary.Deposit != nil:
			balance = acc.Summary.Deposit.CurrentBalance
		case acc.Summary.Investment != nil:
			balance = acc.Summary.Investment.CurrentValue
		}
		amount, err := money.NewFromString(balance, money.INR)
		if err != nil {
			amount = money.Zero(money.INR)
		}

		institution := acc.InstitutionName
		if institution == "" {
			institution = "unknown institution"
		}
		fmt.Fprintf(w, "account %d: %s %s %s balance %s, %d transactions\n",
			i+1,
			institution,
			acc.InstrumentType,
			acc.MaskedAccountNumber,
			amount.Display(),
			len(acc.Transactions.Entries),
		)
	}
}
