package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/urlpad/internal/config"
	"github.com/zjrosen/urlpad/internal/submit"
	"github.com/zjrosen/urlpad/internal/watch"
)

// ErrNotAccepted is returned when a one-shot submission did not get a 2xx.
var ErrNotAccepted = errors.New("submission not accepted")

var sendCmd = &cobra.Command{
	Use:   "send [file|-]",
	Short: "Submit a file or stdin once",
	Long: `Submit the contents of a file, or stdin when the argument is "-" or
missing, and print the outcome. Exits non-zero unless the server answered
with a 2xx status.`,
	Example: `  urlpad send projects.txt
  printf 'https://modrinth.com/mod/sodium\n' | urlpad send -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	return withRuntime(cmd, false, func(ctx context.Context, cfg config.Config) error {
		res := newSubmitter(cfg).Submit(ctx, text)
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), watch.FormatResult(res))

		if res.Outcome != submit.OutcomeSuccess {
			return fmt.Errorf("%w: %s", ErrNotAccepted, res.Outcome)
		}
		return nil
	})
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0]) //nolint:gosec // G304: user-chosen input file
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
