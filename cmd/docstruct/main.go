// Command docstruct converts raw block detections, HTML and EPUB files or
// page images into structured document JSON.
//
// Usage:
//
//	docstruct -in page.html [-format raw|html|epub|image] [-config docstruct.yaml]
//	          [-out doc.json] [-apply-merges] [-pretty]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/tsawler/docstruct"
	"github.com/tsawler/docstruct/config"
	"github.com/tsawler/docstruct/format"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

type options struct {
	in          string
	format      string
	config      string
	out         string
	applyMerges bool
	pretty      bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("docstruct", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.in, "in", "", "input file (required)")
	fs.StringVar(&o.format, "format", "", "input format: raw, html, epub or image (default: detect)")
	fs.StringVar(&o.config, "config", "", "YAML configuration file")
	fs.StringVar(&o.out, "out", "", "output file (default: stdout)")
	fs.BoolVar(&o.applyMerges, "apply-merges", false, "apply accepted table merges")
	fs.BoolVar(&o.pretty, "pretty", false, "indent the JSON output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.in == "" {
		fs.Usage()
		return nil, errors.New("-in is required")
	}
	return &o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if o.config != "" {
		if cfg, err = config.Load(o.config); err != nil {
			return err
		}
	}
	if o.pretty && cfg.Render.Indent == "" {
		cfg.Render.Indent = "  "
	}

	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		return err
	}

	var conv *docstruct.Converter
	if o.format == "" {
		conv = docstruct.Open(o.in)
	} else {
		f, err := format.Parse(o.format)
		if err != nil {
			return err
		}
		conv = docstruct.OpenAs(o.in, f)
	}
	conv = conv.WithConfig(cfg).WithLogger(logger)
	if o.applyMerges {
		conv = conv.ApplyMerges()
	}

	out, warnings, err := conv.JSON(ctx)
	for _, w := range warnings {
		logger.Warn(w.Message, "stage", w.Stage, "block", w.Block)
	}
	if err != nil {
		return err
	}
	out = append(out, '\n')

	if o.out == "" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(o.out, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("wrote document", "path", o.out, "bytes", len(out), "warnings", len(warnings))
	return nil
}
