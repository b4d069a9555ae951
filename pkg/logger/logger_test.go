package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("yaml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat("json"), WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("service").Info(context.Background(), "winner designated",
		String("candidate_id", "c1"),
		Float64("score", 93.5),
		Bool("runner_up", true),
		Error(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "winner designated" {
		t.Errorf("unexpected msg %v", rec["msg"])
	}
	if rec["component"] != "service" {
		t.Errorf("expected component=service, got %v", rec["component"])
	}
	if rec["candidate_id"] != "c1" {
		t.Errorf("expected candidate_id=c1, got %v", rec["candidate_id"])
	}
	src, _ := rec["source"].(string)
	if !strings.Contains(src, "logger_test.go") {
		t.Errorf("expected source to point at the test file, got %q", src)
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().With(String("actor", "a1")).Warn(context.Background(), "audit dropped")
	if !strings.Contains(buf.String(), "actor=a1") {
		t.Errorf("expected bound field in output, got %q", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"warning", false},
		{"error", false},
		{"", false},
		{"verbose", true},
	}
	for _, tt := range tests {
		err := SetLevelString(tt.level)
		if (err != nil) != tt.wantErr {
			t.Errorf("SetLevelString(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
	}

	if err := SetLevelString("error"); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	Get().Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info message should be filtered at error level, got %q", buf.String())
	}
	_ = SetLevelString("info")
}

func TestNop(t *testing.T) {
	Nop().Error(context.Background(), "discarded", String("k", "v"))
}
