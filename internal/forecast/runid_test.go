package forecast

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-42")
	if got := RunID(ctx); got != "run-42" {
		t.Fatalf("RunID = %q, want run-42", got)
	}

	a, b := RunID(context.Background()), RunID(context.Background())
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("generated id %q is not a uuid: %v", a, err)
	}
	if a == b {
		t.Fatalf("generated ids must differ")
	}
}
