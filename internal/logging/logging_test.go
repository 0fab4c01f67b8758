package logging

import "testing"

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger

	l.Debugw("debug")
	l.Infow("info", "key", "value")
	l.Warnw("warn")
	l.Errorw("error")

	if l.Named("child") != nil {
		t.Error("expected nil child from nil logger")
	}
	if err := l.Sync(); err != nil {
		t.Errorf("Sync on nil logger: %v", err)
	}
}

func TestNewLevel(t *testing.T) {
	tests := []struct {
		level   string
		verbose bool
		debug   bool
		warn    bool
	}{
		{"debug", false, true, true},
		{"info", false, false, true},
		{"error", false, false, false},
		{"bogus", false, false, true},
		{"error", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := NewLevel(tt.level, tt.verbose)
			core := l.sugar.Desugar().Core()
			if got := core.Enabled(-1); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
			if got := core.Enabled(1); got != tt.warn {
				t.Errorf("warn enabled = %v, want %v", got, tt.warn)
			}
		})
	}
}
