package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "storyteller",
		Short: "Tell and continue short children's stories",
		Long: `Tell and continue short children's stories.

Run without a subcommand to tell a story interactively.

Examples:
  storyteller
  storyteller tell --prompt "a story about a brave little turtle"
  storyteller sessions
  storyteller arcs validate ./data/arcs.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	tell := newTellCmd()
	root.Flags().AddFlagSet(tell.Flags())
	root.RunE = tell.RunE

	root.AddCommand(tell, newClearCmd(), newSessionsCmd(), newArcsCmd())
	return root
}
