package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/zjrosen/urlpad/internal/config"
	"github.com/zjrosen/urlpad/internal/watch"
)

var watchNow bool

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Submit a file whenever it changes",
	Long: `Watch a file and treat every write as an edit: once the file has been
quiet for the configured delay its contents are submitted and the outcome
printed. Runs until interrupted.`,
	Example: `  urlpad watch projects.txt
  urlpad watch --now --delay 250ms projects.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchNow, "now", false, "submit the current contents once on start")
}

func runWatch(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, false, func(ctx context.Context, cfg config.Config) error {
		var mu sync.Mutex
		out := cmd.OutOrStdout()

		w := watch.New(watch.Config{
			Path:          args[0],
			Delay:         cfg.Delay,
			Submitter:     newSubmitter(cfg),
			SubmitOnStart: watchNow,
			Report: func(r watch.Report) {
				mu.Lock()
				defer mu.Unlock()
				_, _ = fmt.Fprintln(out, watch.FormatReport(r))
			},
		})

		_, _ = fmt.Fprintf(out, "watching %s, posting to %s\n", args[0], cfg.URL())
		return w.Run(ctx)
	})
}
