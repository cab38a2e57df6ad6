package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	l := Discard()
	ctx := WithLogger(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("FromContext did not return the stored logger")
	}
	if FromContext(context.Background()) != Default() {
		t.Error("FromContext without logger should return Default()")
	}
}

func TestRunID(t *testing.T) {
	if RunIDFromContext(context.Background()) != "" {
		t.Error("expected empty run id")
	}
	ctx := WithRunID(context.Background(), "01HX")
	if got := RunIDFromContext(ctx); got != "01HX" {
		t.Errorf("RunIDFromContext = %q", got)
	}
}

func TestL(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(Config{Format: "text", Output: &buf}))
	ctx = WithRunID(ctx, "run-7")
	L(ctx).Info("step")
	if !strings.Contains(buf.String(), "run_id=run-7") {
		t.Errorf("run id missing: %s", buf.String())
	}

	buf.Reset()
	L(WithLogger(context.Background(), New(Config{Format: "text", Output: &buf}))).Info("plain")
	if strings.Contains(buf.String(), "run_id") {
		t.Errorf("unexpected run id: %s", buf.String())
	}
}
