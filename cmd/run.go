package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/libretoken/pgpcard/apdu"
	"github.com/libretoken/pgpcard/card"
)

var runCmd = &cobra.Command{
	Use:   "run <script-file>",
	Short: "Feed a script of hex-encoded command APDUs to the card core",
	Long: `run reads a script file, one hex-encoded command APDU per line,
feeds each to the dispatcher in order against a single Session, and
prints each response APDU in hex alongside its decoded status word.

Blank lines and lines starting with # are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript(args[0])
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScript(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script %s: %w", path, err)
	}
	defer f.Close()

	session, store, err := openSession()
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw, err := hex.DecodeString(strings.ReplaceAll(line, " ", ""))
		if err != nil {
			return fmt.Errorf("script line %d: invalid hex: %w", lineNo, err)
		}

		resp, err := card.Dispatch(session, raw)
		if err != nil {
			return fmt.Errorf("script line %d: %w", lineNo, err)
		}
		sw := apdu.StatusWord(uint16(resp[len(resp)-2])<<8 | uint16(resp[len(resp)-1]))
		fmt.Printf("%3d  %s => %s  %s\n", lineNo, strings.ToUpper(line), strings.ToUpper(hex.EncodeToString(resp)), sw)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read script %s: %w", path, err)
	}

	return store.Save()
}
