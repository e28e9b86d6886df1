package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formtree"
	"github.com/goliatone/go-formtree/pkg/engine"
	"github.com/goliatone/go-formtree/pkg/openapi"
	"github.com/goliatone/go-formtree/pkg/renderers/html"
	"github.com/goliatone/go-formtree/pkg/renderers/tui"
	"github.com/goliatone/go-formtree/pkg/resolution"
	"github.com/goliatone/go-formtree/pkg/schema"
)

// errInvalid is returned by -format validate when a validator fails.
var errInvalid = errors.New("form is invalid")

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	case errors.Is(err, errInvalid):
		os.Exit(3)
	default:
		fmt.Fprintln(os.Stderr, "formtree:", err)
		os.Exit(1)
	}
}

type options struct {
	schema      string
	openapi     string
	operation   string
	model       string
	preset      string
	format      string
	emit        string
	interactive bool
	submit      bool
	output      string
	logLevel    string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("formtree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.schema, "schema", "", "schema document (JSON or YAML)")
	fs.StringVar(&opts.openapi, "openapi", "", "OpenAPI document path or URL to scaffold the schema from")
	fs.StringVar(&opts.operation, "operation", "", "operation ID to scaffold (with -openapi)")
	fs.StringVar(&opts.model, "model", "", "model document (JSON or YAML)")
	fs.StringVar(&opts.preset, "preset", "", "preset document patching fields by model path")
	fs.StringVar(&opts.format, "format", "tree", "output: tree, prepared, json, html, validate, schema")
	fs.StringVar(&opts.emit, "emit", "json", "interactive output: json, yaml, form, pretty")
	fs.BoolVar(&opts.interactive, "interactive", false, "fill the model with terminal prompts")
	fs.BoolVar(&opts.submit, "submit", false, "report every validation message, not only those of touched fields")
	fs.StringVar(&opts.output, "output", "", "output file (stdout if empty)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: trace, debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if (opts.schema == "") == (opts.openapi == "") {
		return opts, errors.New("exactly one of -schema or -openapi is required")
	}
	if opts.openapi != "" && opts.operation == "" {
		return opts, errors.New("-operation is required with -openapi")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "formtree",
		Level:  hclog.LevelFromString(opts.logLevel),
		Output: stderr,
	})

	node, model, err := loadInputs(ctx, opts)
	if err != nil {
		return err
	}

	formOpts := []engine.Option{engine.WithLogger(logger), engine.WithModel(model)}
	if opts.preset != "" {
		data, err := os.ReadFile(opts.preset)
		if err != nil {
			return fmt.Errorf("read preset: %w", err)
		}
		preset, err := engine.NewPresetTransformer(data)
		if err != nil {
			return err
		}
		formOpts = append(formOpts, engine.WithSchemaTransformer(preset))
	}

	form, err := formtree.NewForm(ctx, node, formOpts...)
	if err != nil {
		return err
	}

	if opts.interactive {
		session, err := tui.New(form,
			tui.WithLogger(logger.Named("tui")),
			tui.WithOutputFormat(tui.OutputFormat(opts.emit)),
			tui.WithTheme(tui.Theme{ErrorPrefix: "✗ ", WarnPrefix: "! "}),
		)
		if err != nil {
			return err
		}
		out, err := session.Render(ctx)
		if err != nil {
			return err
		}
		return writeOutput(opts.output, stdout, out)
	}

	out, err := render(ctx, form, opts, logger)
	if err != nil && !errors.Is(err, errInvalid) {
		return err
	}
	if werr := writeOutput(opts.output, stdout, out); werr != nil {
		return werr
	}
	return err
}

func loadInputs(ctx context.Context, opts options) (schema.Node, any, error) {
	var model any
	if opts.model != "" {
		loaded, err := loadModel(opts.model)
		if err != nil {
			return nil, nil, err
		}
		model = loaded
	}

	if opts.schema != "" {
		node, err := schema.LoadFile(opts.schema)
		return node, model, err
	}

	src, err := openapi.ParseSource(opts.openapi)
	if err != nil {
		return nil, nil, err
	}
	scaffold, err := formtree.ScaffoldOperation(ctx, src, opts.operation, openapi.WithHTTPFallback(0))
	if err != nil {
		return nil, nil, err
	}
	if model == nil {
		model = scaffold.Model
	}
	return scaffold.Schema, model, nil
}

func loadModel(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var model any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &model)
	default:
		err = yaml.Unmarshal(data, &model)
	}
	if err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	return model, nil
}

func render(ctx context.Context, form *engine.Form, opts options, logger hclog.Logger) ([]byte, error) {
	switch opts.format {
	case "tree":
		tree, err := form.Resolve()
		if err != nil {
			return nil, err
		}
		return []byte(resolution.Format(tree) + "\n"), nil
	case "prepared":
		if _, err := form.Resolve(); err != nil {
			return nil, err
		}
		return []byte(resolution.FormatPrepared(form.Prepared()) + "\n"), nil
	case "json":
		tree, err := form.Resolve()
		if err != nil {
			return nil, err
		}
		return json.MarshalIndent(tree, "", "  ")
	case "html":
		renderer, err := html.New(html.WithLogger(logger.Named("html")))
		if err != nil {
			return nil, err
		}
		return renderer.RenderForm(ctx, form, opts.submit, html.WithSubmit("Submit"))
	case "validate":
		report, err := form.Validate(opts.submit)
		if err != nil {
			return nil, err
		}
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, err
		}
		if !report.Summary.AllValid {
			return out, errInvalid
		}
		return out, nil
	case "schema":
		return yaml.Marshal(schema.Encode(form.Schema()))
	default:
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
