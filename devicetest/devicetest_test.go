package devicetest

import (
	"path/filepath"
	"testing"
)

func TestSuite_AllScenariosPass(t *testing.T) {
	suite := NewSuite()
	suite.RunAll()
	for _, r := range suite.Results {
		if !r.Passed {
			t.Errorf("scenario %s failed: %s", r.Name, r.Error)
		}
	}
	sum := suite.Summarize()
	if sum.Failed != 0 {
		t.Fatalf("summary reports %d failed scenarios: %v", sum.Failed, sum.FailedNames)
	}
	if sum.Total != len(suite.Scenarios) {
		t.Fatalf("summary total = %d, want %d", sum.Total, len(suite.Scenarios))
	}
}

func TestSuite_WriteReport(t *testing.T) {
	suite := NewSuite()
	suite.RunAll()
	path := filepath.Join(t.TempDir(), "report.json")
	if err := suite.WriteReport(path); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
}
