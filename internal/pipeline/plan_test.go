package pipeline

import "testing"

func TestPlanStagesSubstitutesIdentity(t *testing.T) {
	p := Plan{}
	stages := p.stages()
	if len(stages) != 1 || stages[0].Argv[0] != "cat" {
		t.Fatalf("empty plan should substitute a single identity stage, got %v", stages)
	}
}

func TestPlanStagesPassesThroughExplicit(t *testing.T) {
	p := Plan{Stages: []StageSpec{{Argv: []string{"ps2pdf"}}}}
	stages := p.stages()
	if len(stages) != 1 || stages[0].Argv[0] != "ps2pdf" {
		t.Fatalf("explicit stages should pass through unchanged, got %v", stages)
	}
}
