package commands

import (
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var verbose int

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pvmgen",
		Short:         "Contract code generator for the pvm runtime",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			commonlog.Configure(verbosity(verbose), nil)
			return nil
		},
	}

	root.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity (-v info, -vv debug)")

	root.AddCommand(generateCmd(), selectorCmd())
	return root
}

// verbosity maps the -v count onto commonlog levels: warnings by default,
// info with -v and debug with -vv.
func verbosity(count int) int {
	if count <= 0 {
		return 1
	}
	return min(2+count, 4)
}
