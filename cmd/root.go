// Package cmd implements the pgpcard CLI: a cobra command tree driving an
// in-process card.Session instead of a physical reader, adapted from the
// teacher's cmd/root.go persistent-flags-plus-subcommands shape.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/libretoken/pgpcard/card"
	"github.com/libretoken/pgpcard/cryptoprim"
	"github.com/libretoken/pgpcard/dostore"
)

var (
	version = "0.1.0"

	storePath string
)

var rootCmd = &cobra.Command{
	Use:   "pgpcard",
	Short: "OpenPGP smart card token core",
	Long: `pgpcard v` + version + `
An in-process OpenPGP Card v2 core: the APDU command dispatcher, the
access-control state machine, and the password/keystring change protocol
a USB cryptographic token implements, driven from the command line
against a JSON-snapshotted Data Object store instead of a physical
transport.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "pgpcard-store.json",
		"path to the Data Object store JSON snapshot")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openSession loads (or creates) the configured store and returns a fresh
// Session bound to it.
func openSession() (*card.Session, *dostore.Store, error) {
	crypto := cryptoprim.DefaultProvider{}
	store, err := dostore.Open(storePath, crypto)
	if err != nil {
		return nil, nil, fmt.Errorf("open store %s: %w", storePath, err)
	}
	return card.NewSession(store, crypto), store, nil
}
