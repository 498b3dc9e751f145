package cmd

import (
	"github.com/spf13/cobra"

	"github.com/libretoken/pgpcard/output"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the current session/ACS/Data Object store state",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, store, err := openSession()
		if err != nil {
			return err
		}
		output.PrintSessionState(session)
		output.PrintDOStore(store.DumpData())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
