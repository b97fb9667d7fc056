package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunPipelineIdentityStage(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(inputPath, []byte("hello spooler\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	spoolDir := filepath.Join(dir, "spool")
	code := runPipeline(Plan{
		InputPath:       inputPath,
		PrinterName:     "alice",
		PrinterType:     "pdf",
		PrinterSpoolDir: spoolDir,
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	got, err := os.ReadFile(filepath.Join(spoolDir, "alice.spool"))
	if err != nil {
		t.Fatalf("read spool output: %v", err)
	}
	if string(got) != "hello spooler\n" {
		t.Fatalf("identity stage should copy stdin to stdout verbatim, got %q", got)
	}
}

func TestRunPipelineMultiStage(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(inputPath, []byte("line one\nline two\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	spoolDir := filepath.Join(dir, "spool")
	code := runPipeline(Plan{
		InputPath:       inputPath,
		PrinterName:     "bob",
		PrinterType:     "pdf",
		PrinterSpoolDir: spoolDir,
		Stages: []StageSpec{
			{Argv: []string{"cat"}},
			{Argv: []string{"cat"}},
		},
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	got, err := os.ReadFile(filepath.Join(spoolDir, "bob.spool"))
	if err != nil {
		t.Fatalf("read spool output: %v", err)
	}
	if string(got) != "line one\nline two\n" {
		t.Fatalf("two-stage cat|cat should pass data through unchanged, got %q", got)
	}
}

func TestRunPipelineFailingStageIsNonZero(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(inputPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	spoolDir := filepath.Join(dir, "spool")
	code := runPipeline(Plan{
		InputPath:       inputPath,
		PrinterName:     "carol",
		PrinterType:     "pdf",
		PrinterSpoolDir: spoolDir,
		Stages: []StageSpec{
			{Argv: []string{"false"}},
		},
	})
	if code == 0 {
		t.Fatalf("a failing stage should yield a non-zero aggregate exit code")
	}
}
