package compile

import (
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"tcss/css"
	"tcss/state"
)

// stdio is the name used on command line for standard input and output.
const stdio = "-"

// RunPretty reformats compiled CSS with one declaration per line and block
// indentation.
func RunPretty(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("pretty")

	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	data, err := readInput(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	return writeResult(cmd.Args().Get(1), []byte(css.Pretty(string(data))))
}

func readInput(name string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if len(name) == 0 || name == stdio {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read input: %w", err)
	}
	return data, nil
}

func writeResult(name string, data []byte) (err error) {
	out := os.Stdout
	if len(name) > 0 && name != stdio {
		if out, err = os.Create(name); err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", name, err)
		}
		defer out.Close()
	}
	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	return nil
}
