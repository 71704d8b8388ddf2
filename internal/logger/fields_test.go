package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFieldsSkipsBlank(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  tei  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "tei" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}
}

func TestWithFieldsFallsBackToNop(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithFields(zap.New(core), zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %v", entries[0].ContextMap()["foo"])
	}

	nop := WithFields(nil, zap.String("baz", "qux"))
	if nop == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	nop.Info("ignored")
}

func TestWithCommonFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithCommonFields(zap.New(core), "gemini", "gemini-embedding-001").Info("encoder loaded")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("expected provider gemini, got %v", ctx[FieldProvider])
	}
	if ctx[FieldModel] != "gemini-embedding-001" {
		t.Fatalf("unexpected model: %v", ctx[FieldModel])
	}

	if len(CommonFields("", "")) != 0 {
		t.Fatalf("expected no fields for empty provider and model")
	}
}

func TestPairFields(t *testing.T) {
	fields := PairFields("Backend Developer", "")
	if len(fields) != 1 || fields[0].Key != FieldJob {
		t.Fatalf("expected only the job field, got %+v", fields)
	}
}
