// Package compile implements program subcommands working with style
// templates: compilation of template files into stylesheets, pretty
// printing and inspection of the results.
package compile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tcss/config"
	"tcss/css"
	"tcss/lint"
	"tcss/render"
	"tcss/state"
)

// valuesExt is the extension of per template value files, "button.tcss"
// takes its values from "button.yaml" next to it.
const valuesExt = ".yaml"

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	// command line takes precedence over configuration
	if cmd.IsSet("pretty") {
		env.Cfg.Compiler.Pretty = cmd.Bool("pretty")
	}
	if cmd.IsSet("check") {
		env.Cfg.Compiler.Check = cmd.Bool("check")
	}
	if cmd.IsSet("bindings") {
		env.Cfg.Compiler.Bindings = cmd.Bool("bindings")
	}
	if cmd.IsSet("format") {
		switch format := config.OutputFormat(cmd.String("format")); format {
		case config.FormatCSS, config.FormatHTML:
			env.Cfg.Compiler.Format = format
		default:
			log.Warn("Unknown output format requested, ignoring", zap.String("format", string(format)))
		}
	}
	env.Overwrite = cmd.Bool("overwrite")

	var values map[string]any
	if path := cmd.String("values"); len(path) > 0 {
		if values, err = env.Loader.LoadValuesFile(path); err != nil {
			return fmt.Errorf("unable to load values: %w", err)
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst),
		zap.String("format", string(env.Cfg.Compiler.Format)))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)), zap.Int("templates", env.Compiler.Len()))
	}(time.Now())

	return process(ctx, src, dst, values, env, log)
}

// process handles the core compilation logic independently of CLI framework.
func process(ctx context.Context, src, dst string, values map[string]any, env *state.LocalEnv, log *zap.Logger) error {
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found: %w", err)
	}
	if fi.IsDir() {
		return processDir(ctx, src, dst, values, env, log)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}
	_, err = processFile(ctx, src, "", dst, values, env, log)
	return err
}

// processDir finds template files under dir and compiles them concurrently.
// Failure of a single file does not stop processing, all errors are
// returned together.
func processDir(ctx context.Context, dir, dst string, values map[string]any, env *state.LocalEnv, log *zap.Logger) error {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), env.Cfg.Compiler.SourceExtension) {
			log.Debug("Skipping file, not a template", zap.String("file", path))
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
		return nil
	}
	sort.Sort(natural.StringSlice(files))

	var (
		mu   sync.Mutex
		errs error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(env.Cfg.Compiler.Workers, 1))
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rel := filepath.Dir(strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator)))
			if _, err := processFile(gctx, path, rel, dst, values, env, log); err != nil {
				log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errs
}

// processFile compiles single template file and writes the result under
// dst/rel. It returns the name of the produced file.
func processFile(ctx context.Context, path, rel, dst string, values map[string]any, env *state.LocalEnv, log *zap.Logger) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := env.Loader.Load(path)
	if err != nil {
		return "", err
	}

	own := strings.TrimSuffix(path, filepath.Ext(path)) + valuesExt
	if _, err := os.Stat(own); err == nil {
		ownValues, err := env.Loader.LoadValuesFile(own)
		if err != nil {
			return "", fmt.Errorf("unable to load values: %w", err)
		}
		merged := maps.Clone(values)
		if merged == nil {
			merged = make(map[string]any, len(ownValues))
		}
		maps.Copy(merged, ownValues)
		values = merged
	}

	frag, err := src.Bind(values)
	if err != nil {
		return "", err
	}
	sheet, err := env.Compiler.Compile(frag)
	if err != nil {
		return "", fmt.Errorf("unable to compile %s: %w", path, err)
	}

	if env.Cfg.Compiler.Bindings {
		logBindings(sheet, path, log)
	}

	out := sheet
	if env.Cfg.Compiler.Pretty {
		out = prettify(sheet)
	}
	if env.Cfg.Compiler.Check {
		check(out, path, log)
	}

	outPath := buildOutputPath(src, sheet.Hash, rel, dst, env)
	if err := writeOutput(outPath, out, env, log); err != nil {
		return "", err
	}
	log.Info("Template compiled", zap.String("source", path), zap.String("destination", outPath),
		zap.String("hash", sheet.Hash), zap.Int("placeholders", len(sheet.Placeholders)))
	return outPath, nil
}

func prettify(s *css.Stylesheet) *css.Stylesheet {
	out := *s
	out.Sheets = make([]string, len(s.Sheets))
	for i, text := range s.Sheets {
		out.Sheets[i] = css.Pretty(text)
	}
	return &out
}

func check(s *css.Stylesheet, path string, log *zap.Logger) {
	rpt := lint.NewParser(log).Inspect([]byte(s.Text()), path)
	for _, w := range rpt.Warnings {
		log.Warn("Compiled stylesheet problem", zap.String("source", path), zap.String("warning", w))
	}
	for _, p := range s.Placeholders {
		if !rpt.References(p.Name()) {
			log.Warn("Placeholder is not referenced", zap.String("source", path), zap.String("property", p.Name()))
		}
	}
}

func logBindings(s *css.Stylesheet, path string, log *zap.Logger) {
	log.Info("Template bindings", zap.String("source", path),
		zap.String("class", render.ClassName("", s)),
		zap.String("style", render.InlineStyle(s)))
}

func writeOutput(path string, s *css.Stylesheet, env *state.LocalEnv, log *zap.Logger) (err error) {
	if _, err := os.Stat(path); err == nil && !env.Overwrite {
		return fmt.Errorf("output file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	reg := render.NewRegistry(log)
	reg.Add(s)
	switch env.Cfg.Compiler.Format {
	case config.FormatHTML:
		err = reg.WriteStyleElement(f)
	default:
		_, err = reg.WriteTo(f)
	}
	if err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	return nil
}
