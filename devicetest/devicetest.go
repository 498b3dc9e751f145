// Package devicetest is a scenario harness driving a card.Session in
// process, covering the spec's named numbered scenarios and universal
// invariants as repeatable pass/fail checks outside of _test.go files — the
// shape a `selftest` CLI subcommand needs to run against a live device.
//
// Modeled after the teacher's testing/suite.go (TestSuite/TestResult,
// category runner, GetSummary) and testing/report.go (JSON report
// generation), adapted from "drive a PC/SC reader over several card
// categories" to "drive an in-process Session through fixed scenarios".
package devicetest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/libretoken/pgpcard/card"
	"github.com/libretoken/pgpcard/cryptoprim"
	"github.com/libretoken/pgpcard/dostore"
)

// Result is the outcome of a single scenario.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Summary aggregates a run's results.
type Summary struct {
	Total       int      `json:"total"`
	Passed      int      `json:"passed"`
	Failed      int      `json:"failed"`
	FailedNames []string `json:"failed_names,omitempty"`
}

// Report is the JSON-serializable form of a completed run, mirroring the
// teacher's Report (minus the HTML rendering, which has no CLI caller here).
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Summary   Summary   `json:"summary"`
	Results   []Result  `json:"results"`
}

// Scenario is one named, self-contained check against a fresh Session.
type Scenario struct {
	Name string
	Run  func(s *card.Session) error
}

// Suite runs every registered Scenario against its own fresh Session and
// collects the results.
type Suite struct {
	Scenarios []Scenario
	Results   []Result
}

// NewSuite returns a Suite pre-loaded with the spec's six numbered
// scenarios (§8) plus the universal-invariant checks.
func NewSuite() *Suite {
	return &Suite{Scenarios: AllScenarios()}
}

func freshSession() *card.Session {
	store := dostore.New(cryptoprim.DefaultProvider{})
	return card.NewSession(store, cryptoprim.DefaultProvider{})
}

// RunAll executes every scenario, each against its own fresh Session so
// scenarios never contaminate one another's state.
func (s *Suite) RunAll() {
	s.Results = s.Results[:0]
	for _, sc := range s.Scenarios {
		start := time.Now()
		session := freshSession()
		err := sc.Run(session)
		r := Result{Name: sc.Name, Duration: time.Since(start)}
		if err != nil {
			r.Passed = false
			r.Error = err.Error()
		} else {
			r.Passed = true
		}
		s.Results = append(s.Results, r)
	}
}

// Summarize computes the pass/fail aggregate for the last RunAll.
func (s *Suite) Summarize() Summary {
	sum := Summary{}
	for _, r := range s.Results {
		sum.Total++
		if r.Passed {
			sum.Passed++
		} else {
			sum.Failed++
			sum.FailedNames = append(sum.FailedNames, r.Name)
		}
	}
	return sum
}

// WriteReport writes a JSON report of the last RunAll to path.
func (s *Suite) WriteReport(path string) error {
	report := Report{
		Timestamp: time.Now(),
		Summary:   s.Summarize(),
		Results:   s.Results,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("devicetest: marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("devicetest: write %s: %w", path, err)
	}
	return nil
}

// swOf extracts the trailing status word from a dispatch response.
func swOf(resp []byte) uint16 {
	n := len(resp)
	return uint16(resp[n-2])<<8 | uint16(resp[n-1])
}

func requireSW(resp []byte, want uint16, what string) error {
	if got := swOf(resp); got != want {
		return fmt.Errorf("%s: SW = %04X, want %04X (response %s)", what, got, want, hex.EncodeToString(resp))
	}
	return nil
}
