package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libretoken/pgpcard/devicetest"
	"github.com/libretoken/pgpcard/output"
)

var selftestReportPath string

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the built-in device test scenarios against an in-process session",
	RunE: func(cmd *cobra.Command, args []string) error {
		suite := devicetest.NewSuite()
		suite.RunAll()
		output.PrintSelfTestResults(suite)

		if selftestReportPath != "" {
			if err := suite.WriteReport(selftestReportPath); err != nil {
				return err
			}
		}

		if sum := suite.Summarize(); sum.Failed > 0 {
			cmd.SilenceUsage = true
			return errScenariosFailed{count: sum.Failed}
		}
		return nil
	},
}

type errScenariosFailed struct{ count int }

func (e errScenariosFailed) Error() string {
	if e.count == 1 {
		return "1 scenario failed"
	}
	return fmt.Sprintf("%d scenarios failed", e.count)
}

func init() {
	selftestCmd.Flags().StringVar(&selftestReportPath, "report", "", "write a JSON report to this path")
	rootCmd.AddCommand(selftestCmd)
}
