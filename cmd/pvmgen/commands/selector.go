package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	pvm "github.com/branched-services/go-pvm"
)

func selectorCmd() *cobra.Command {
	var (
		storageKey bool
		topic      bool
	)

	cmd := &cobra.Command{
		Use:   "selector name...",
		Short: "Print the selector of each call name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if storageKey && topic {
				return fmt.Errorf("--storage-key and --topic are mutually exclusive")
			}
			w := cmd.OutOrStdout()
			for _, name := range args {
				switch {
				case storageKey:
					fmt.Fprintf(w, "%s\t%s\n", pvm.StorageKey(name).Hex(), name)
				case topic:
					fmt.Fprintf(w, "%s\t%s\n", pvm.TopicOf(name).Hex(), name)
				default:
					fmt.Fprintf(w, "%s\t%s\n", pvm.SelectorOf(name).Hex(), name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&storageKey, "storage-key", false, "print the storage key of a storage type name")
	cmd.Flags().BoolVar(&topic, "topic", false, "print the topic of an event type name")
	return cmd
}
