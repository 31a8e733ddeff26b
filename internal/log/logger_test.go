package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestConfigureAttachesServiceField(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "chanmap-test"})
	defer Configure(Config{})

	logger := WithComponent("matcher")
	logger.Info().Str(FieldEvent, "test.event").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["service"] != "chanmap-test" {
		t.Errorf("service = %v, want chanmap-test", entry["service"])
	}
	if entry["component"] != "matcher" {
		t.Errorf("component = %v, want matcher", entry["component"])
	}
	if entry["event"] != "test.event" {
		t.Errorf("event = %v, want test.event", entry["event"])
	}
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf})
	defer Configure(Config{})

	ctx := ContextWithRunID(ContextWithRequestID(nil, "req-1"), "run-1")
	logger := WithContext(ctx, Base())
	logger.Info().Msg("correlated")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry[FieldRequestID] != "req-1" {
		t.Errorf("request_id = %v, want req-1", entry[FieldRequestID])
	}
	if entry[FieldRunID] != "run-1" {
		t.Errorf("run_id = %v, want run-1", entry[FieldRunID])
	}
}
