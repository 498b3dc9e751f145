// Package output renders card/ACS/devicetest state as terminal tables,
// adapted from the teacher's SIM/USIM dump tables to OpenPGP card state.
package output

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/libretoken/pgpcard/acs"
	"github.com/libretoken/pgpcard/card"
	"github.com/libretoken/pgpcard/devicetest"
	"github.com/libretoken/pgpcard/dostore"
)

var (
	colorHeader  = text.Colors{text.FgCyan, text.Bold}
	colorLabel   = text.Colors{text.FgYellow}
	colorValue   = text.Colors{text.FgWhite}
	colorSuccess = text.Colors{text.FgGreen}
	colorError   = text.Colors{text.FgRed}
	colorWarn    = text.Colors{text.FgYellow}
)

func getTableStyle() table.Style {
	style := table.StyleRounded
	style.Color.Header = colorHeader
	style.Color.Row = text.Colors{text.FgWhite}
	style.Color.RowAlternate = text.Colors{text.FgHiWhite}
	style.Options.SeparateRows = false
	return style
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(getTableStyle())
	t.Style().Options.SeparateRows = false
	return t
}

// PrintSessionState renders the selected-file state and ACS flags/counters
// of a live Session — the `dump` subcommand's main table.
func PrintSessionState(s *card.Session) {
	fmt.Println()
	t := newTable()
	t.SetTitle("SESSION STATE")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 22},
		{Number: 2, Colors: colorValue, WidthMin: 40},
	})
	t.AppendRow(table.Row{"Selected file", s.FileSelection.String()})
	t.AppendRow(table.Row{"Signature counter", s.SigCounter})
	t.Render()

	fmt.Println()
	t2 := newTable()
	t2.SetTitle("ACCESS CONTROL STATE")
	t2.AppendHeader(table.Row{"Flag/Credential", "Value"})
	flags := []struct {
		name string
		val  bool
	}{
		{"PSO-CDS authorized", s.ACS.Authorized(acs.FlagPSOCDS)},
		{"PSO-OTHER authorized", s.ACS.Authorized(acs.FlagPSOOther)},
		{"ADMIN authorized", s.ACS.Authorized(acs.FlagAdmin)},
	}
	for _, f := range flags {
		t2.AppendRow(table.Row{f.name, yesNo(f.val)}, table.RowConfig{AutoMerge: false})
	}
	for _, cred := range []acs.Credential{acs.PW1, acs.RC, acs.PW3} {
		t2.AppendRow(table.Row{
			fmt.Sprintf("%s error count", cred),
			fmt.Sprintf("%d (locked: %s)", s.ACS.ErrorCount(cred), yesNo(s.ACS.IsLocked(cred))),
		})
	}
	t2.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// PrintDOStore renders every generic Data Object currently stored —
// PutData/GetData tags, not the internal simple records or wrapped keys.
func PrintDOStore(tags map[dostore.Tag][]byte) {
	fmt.Println()
	t := newTable()
	t.SetTitle("DATA OBJECTS")
	t.AppendHeader(table.Row{"Tag", "Length", "Value (hex)"})

	sorted := make([]dostore.Tag, 0, len(tags))
	for tag := range tags {
		sorted = append(sorted, tag)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, tag := range sorted {
		v := tags[tag]
		t.AppendRow(table.Row{fmt.Sprintf("%04X", uint16(tag)), len(v), fmt.Sprintf("% X", v)})
	}
	t.Render()
}

// PrintSelfTestResults renders a devicetest.Suite's results and summary —
// the `selftest` subcommand's output.
func PrintSelfTestResults(suite *devicetest.Suite) {
	fmt.Println()
	t := newTable()
	t.SetTitle("SELF-TEST RESULTS")
	t.AppendHeader(table.Row{"Scenario", "Result", "Detail"})
	for _, r := range suite.Results {
		status := colorSuccess.Sprint("PASS")
		detail := r.Detail
		if !r.Passed {
			status = colorError.Sprint("FAIL")
			detail = r.Error
		}
		t.AppendRow(table.Row{r.Name, status, detail})
	}
	t.Render()

	sum := suite.Summarize()
	fmt.Println()
	fmt.Printf("%d/%d scenarios passed\n", sum.Passed, sum.Total)
	if sum.Failed > 0 {
		fmt.Println(colorWarn.Sprintf("failed: %v", sum.FailedNames))
	}
}
