package logger

import "testing"

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			if err := Initialize(tt.jsonOutput); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}
			if Logger == nil {
				t.Fatal("Initialize() did not set global Logger")
			}
			if JSONOutput != tt.jsonOutput {
				t.Errorf("JSONOutput = %v, want %v", JSONOutput, tt.jsonOutput)
			}

			Logger.Sync()
			Logger = nil
		})
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	Logger = nil
	defer func() {
		Logger = nil
		_ = Initialize(false)
	}()

	// None of these should panic even with a nil global logger.
	Info("msg")
	Infof("msg %d", 1)
	Infow("msg", "k", "v")
	Warn("msg")
	Warnf("msg %d", 1)
	Warnw("msg", "k", "v")
	Error("msg")
	Errorf("msg %d", 1)
	Errorw("msg", "k", "v")
	Debug("msg")
	Debugf("msg %d", 1)
	Debugw("msg", "k", "v")
	SyncInfow("msg")
	UploadInfow("msg")
	AlignDebugw("msg")
	UndoDebugw("msg")
}

func TestSetTheme(t *testing.T) {
	SetTheme("gruvbox")
	if currentTheme != "gruvbox" {
		t.Fatalf("SetTheme did not apply gruvbox")
	}
	SetTheme("bogus")
	if currentTheme != "gruvbox" {
		t.Fatalf("SetTheme should ignore unknown themes")
	}
	SetTheme("everforest")
}

func TestColorizeMessagePreservesPlainText(t *testing.T) {
	msg := "applied remote move [op:abc123]"
	out := colorizeMessage(msg)
	if out == "" {
		t.Fatal("colorizeMessage returned empty string")
	}
}
