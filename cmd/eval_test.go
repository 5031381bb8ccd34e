package cmd

import (
	"errors"
	"testing"

	"github.com/smoltrace/smoltrace/internal/eval"
	"github.com/smoltrace/smoltrace/internal/utils"
)

func TestLoadSuiteWithoutTarget(t *testing.T) {
	restore := func(suite, target string, validate bool) {
		evalSuiteFile, evalTargetURL, evalValidateOnly = suite, target, validate
	}
	defer restore(evalSuiteFile, evalTargetURL, evalValidateOnly)

	evalSuiteFile, evalTargetURL, evalValidateOnly = "", "", false

	_, err := loadSuite()
	if err == nil {
		t.Fatal("expected error when built-in suite has no target")
	}

	var uerr *utils.UserError
	if !errors.As(err, &uerr) {
		t.Fatalf("error should be a UserError, got %T: %v", err, err)
	}
	if uerr.Solution == "" {
		t.Error("UserError should carry a solution hint")
	}
}

func TestResolveAgentTypes(t *testing.T) {
	tests := []struct {
		name      string
		agentType string
		want      []string
		wantErr   bool
	}{
		{name: "tool", agentType: "tool", want: []string{eval.AgentTypeTool}},
		{name: "uppercase tool", agentType: "TOOL", want: []string{eval.AgentTypeTool}},
		{name: "both expands", agentType: "both", want: []string{eval.AgentTypeTool, eval.AgentTypeCode}},
		{name: "unknown", agentType: "robot", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveAgentTypes(tt.agentType)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var uerr *utils.UserError
				if !errors.As(err, &uerr) {
					t.Errorf("error should be a UserError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveAgentTypes() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}
