package e2e

import (
	"context"
	"strings"
	"testing"
)

func TestBuildCorpus_CasesAreWellFormed(t *testing.T) {
	c := BuildCorpus()
	if len(c.Cases) == 0 {
		t.Fatal("corpus has no cases")
	}
	seen := make(map[string]bool)
	for i, qc := range c.Cases {
		if qc.Question == "" || qc.SQL == "" {
			t.Errorf("case %d: empty question or SQL", i)
		}
		if seen[qc.Question] {
			t.Errorf("case %d: duplicate question %q", i, qc.Question)
		}
		seen[qc.Question] = true
		if qc.Outcome == Answered && (len(qc.Columns) == 0 || qc.ReferenceCount == "") {
			t.Errorf("case %d: answered case needs columns and a reference count", i)
		}
	}
}

func TestQuestionFromPrompt(t *testing.T) {
	prompt := "Context:\n[loans.txt]\nTable: loans\n\nUser Question:\nHow many loans are active?\n\nOutput (raw SQL only):\n"
	if got := QuestionFromPrompt(prompt); got != "How many loans are active?" {
		t.Errorf("QuestionFromPrompt() = %q", got)
	}
	if got := QuestionFromPrompt("no marker here"); got != "" {
		t.Errorf("QuestionFromPrompt(no marker) = %q", got)
	}
}

func TestScriptedCompleter(t *testing.T) {
	s := NewScriptedCompleter(BuildCorpus())
	ctx := context.Background()
	got, err := s.Complete(ctx, "User Question:\nHow many loans are active?\n")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "SELECT COUNT(id)") {
		t.Errorf("scripted SQL = %q", got)
	}
	got, _ = s.Complete(ctx, "User Question:\nunknown question\n")
	if got != "-- CANNOT_GENERATE_SQL" {
		t.Errorf("unknown question should decline, got %q", got)
	}
	if s.Prompt("unknown question") == "" {
		t.Error("prompt should be recorded")
	}
}
