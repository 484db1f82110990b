package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/jsdabond/internal/config"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	logger.WithField("date", "2026-10-16").Debug("loaded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "loaded" {
		t.Errorf("msg: got %v, want loaded", entry["msg"])
	}
	if entry["date"] != "2026-10-16" {
		t.Errorf("date: got %v", entry["date"])
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	logger.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text output: got %q", buf.String())
	}
}

func TestNewLevelFallback(t *testing.T) {
	logger := NewWithOutput(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("level: got %v, want info", logger.GetLevel())
	}
}

func TestNewLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LoggingConfig{Level: "warn"}, &buf)
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
}
