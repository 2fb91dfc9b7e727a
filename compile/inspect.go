package compile

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"tcss/lint"
	"tcss/state"
)

// RunInspect reports structure of a stylesheet as YAML. Template files are
// compiled first, with values from the --values file if given.
func RunInspect(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inspect")

	name := cmd.Args().Get(0)
	text, err := inspectedText(name, cmd.String("values"), env)
	if err != nil {
		return err
	}

	rpt := lint.NewParser(log).Inspect([]byte(text), name)
	// warnings are part of the report, console may share STDOUT with it
	log.Debug("Inspection completed", zap.String("summary", rpt.Summary()), zap.Strings("warnings", rpt.Warnings))

	data, err := yaml.Marshal(rpt)
	if err != nil {
		return fmt.Errorf("unable to marshal report: %w", err)
	}
	return writeResult(cmd.Args().Get(1), data)
}

func inspectedText(name, valuesPath string, env *state.LocalEnv) (string, error) {
	if len(name) == 0 || name == stdio || !strings.EqualFold(filepath.Ext(name), env.Cfg.Compiler.SourceExtension) {
		data, err := readInput(name)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	src, err := env.Loader.Load(name)
	if err != nil {
		return "", err
	}
	values := map[string]any{}
	if len(valuesPath) > 0 {
		if values, err = env.Loader.LoadValuesFile(valuesPath); err != nil {
			return "", fmt.Errorf("unable to load values: %w", err)
		}
	}
	frag, err := src.Bind(values)
	if err != nil {
		return "", err
	}
	sheet, err := env.Compiler.Compile(frag)
	if err != nil {
		return "", fmt.Errorf("unable to compile %s: %w", name, err)
	}
	return sheet.Text(), nil
}
