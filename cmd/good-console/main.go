package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	root := newRootCmd()
	root.SetArgs(os.Args[1:])

	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("good-console command failed")
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}
	root := &cobra.Command{
		Use:   "good-console [file...]",
		Short: "Print hapi-style server events as colored console lines",
		Long: "good-console reads newline-delimited JSON events (response, ops, error, " +
			"request, log) from files or stdin and prints one formatted line per event.",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, opts, args)
		},
	}
	opts.bind(root)

	root.AddCommand(newColorsCmd())
	root.AddCommand(newVersionCmd())

	return root
}
