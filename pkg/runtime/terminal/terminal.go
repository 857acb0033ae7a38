package terminal

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/de-tools/report-export/pkg/export"
	"github.com/de-tools/report-export/pkg/runtime/terminal/commands"
	preview "github.com/de-tools/report-export/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	producer export.Producer
	reporter *preview.Reporter
	now      func() time.Time
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Producer export.Producer
	Output   io.Writer
	Now      func() time.Time
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Producer == nil {
		opts.Producer = export.NewCoordinator()
	}

	cli := &CLI{
		producer: opts.Producer,
		reporter: preview.NewReporter(opts.Output),
		now:      opts.Now,
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute(ctx context.Context, args ...string) error {
	if args != nil {
		cli.rootCmd.SetArgs(args)
	}
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "report-export",
		Short:         "Tabular report export tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(commands.NewExportCmd(cli.producer, cli.reporter, cli.now))
	cmd.AddCommand(commands.NewSourcesCmd())

	return cmd
}
