package runner

import (
	"context"
	"strings"
	"testing"
	"time"

	"metron/pkg/logx"
)

func TestCommandJobSuccess(t *testing.T) {
	t.Parallel()
	job := CommandJob("ok", "echo hello", logx.Nop())
	if err := job(context.Background()); err != nil {
		t.Fatalf("job error: %v", err)
	}
}

func TestCommandJobFailureIncludesOutput(t *testing.T) {
	t.Parallel()
	job := CommandJob("fail", "echo broken >&2; exit 3", logx.Nop())
	err := job(context.Background())
	if err == nil {
		t.Fatal("expected error for failing command")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Fatalf("error is missing command output: %v", err)
	}
	if !strings.Contains(err.Error(), "exit status 3") {
		t.Fatalf("error is missing exit status: %v", err)
	}
}

func TestCommandJobHonorsContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	job := CommandJob("slow", "sleep 10", logx.Nop())
	start := time.Now()
	if err := job(ctx); err == nil {
		t.Fatal("expected error for killed command")
	}
	if took := time.Since(start); took > 5*time.Second {
		t.Fatalf("command was not killed by context (took %v)", took)
	}
}

func TestTruncateOutput(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", maxOutputLog+100)
	got := truncateOutput([]byte(long))
	if len(got) > maxOutputLog+32 {
		t.Fatalf("output not truncated: %d bytes", len(got))
	}
	if !strings.HasSuffix(got, "(truncated)") {
		t.Fatal("missing truncation marker")
	}
}
