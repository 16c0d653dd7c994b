package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level     string
		format    string
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"debug", "json", logrus.DebugLevel, true},
		{"warn", "text", logrus.WarnLevel, false},
		{"nonsense", "", logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		l := New(tt.level, tt.format)
		if l.GetLevel() != tt.wantLevel {
			t.Errorf("New(%q): level = %v, want %v", tt.level, l.GetLevel(), tt.wantLevel)
		}
		_, isJSON := l.Formatter.(*logrus.JSONFormatter)
		if isJSON != tt.wantJSON {
			t.Errorf("New(%q, %q): json formatter = %v, want %v", tt.level, tt.format, isJSON, tt.wantJSON)
		}
	}
}
