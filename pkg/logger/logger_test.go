package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		logMsg      string
		attrs       []slog.Attr
	}{
		{
			name:        "Basic log entry",
			serviceName: "db-version",
			logMsg:      "database_version",
		},
		{
			name:        "Log with extra attributes",
			serviceName: "db-version",
			logMsg:      "secret_retrieved",
			attrs: []slog.Attr{
				slog.String("backend", "aws"),
				slog.Int("attempt", 1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Setup(&buf, tt.serviceName, "info")

			args := make([]any, 0, len(tt.attrs)*2)
			for _, attr := range tt.attrs {
				args = append(args, attr.Key, attr.Value.Any())
			}
			slog.Info(tt.logMsg, args...)

			var logEntry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("Failed to parse log JSON: %v", err)
			}

			if logEntry["msg"] != tt.logMsg {
				t.Errorf("Expected msg %q, got %q", tt.logMsg, logEntry["msg"])
			}
			if logEntry["service"] != tt.serviceName {
				t.Errorf("Expected service %q, got %q", tt.serviceName, logEntry["service"])
			}
			if logEntry["level"] != "INFO" {
				t.Errorf("Expected level INFO, got %v", logEntry["level"])
			}

			for _, attr := range tt.attrs {
				val, ok := logEntry[attr.Key]
				if !ok {
					t.Errorf("Missing expected attribute %q", attr.Key)
					continue
				}
				// json.Unmarshal converts numbers to float64 by default
				if attr.Value.Kind() == slog.KindInt64 {
					if int(val.(float64)) != int(attr.Value.Int64()) {
						t.Errorf("Attribute %q: expected %v, got %v", attr.Key, attr.Value, val)
					}
				} else if val != attr.Value.Any() {
					t.Errorf("Attribute %q: expected %v, got %v", attr.Key, attr.Value, val)
				}
			}
		})
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "db-version", "error")

	slog.Info("should_be_dropped")
	if buf.Len() != 0 {
		t.Errorf("Expected info entry to be filtered, got %s", buf.String())
	}

	slog.Error("kept")
	if buf.Len() == 0 {
		t.Error("Expected error entry to be written")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "db-version", "info")

	t.Run("Default When Unset", func(t *testing.T) {
		if got := FromContext(context.Background()); got != slog.Default() {
			t.Error("Expected default logger for a bare context")
		}
	})

	t.Run("Carries Attributes", func(t *testing.T) {
		buf.Reset()
		ctx := WithContext(context.Background(), slog.Default().With("request_id", "req-9"))
		FromContext(ctx).Error("secret_retrieval_failed")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("Failed to parse log JSON: %v", err)
		}
		if entry["request_id"] != "req-9" {
			t.Errorf("Expected request_id req-9, got %v", entry["request_id"])
		}
	})
}
