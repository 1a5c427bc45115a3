package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, "config")

	err := Init(Config{
		Debug:     false,
		ConfigDir: configDir,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}

	if Logger == nil {
		t.Error("Logger is nil after initialization")
	}

	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}

func TestInitDebugQuiet(t *testing.T) {
	tempDir := t.TempDir()

	err := Init(Config{
		Debug:     true,
		Quiet:     true,
		ConfigDir: tempDir,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger in debug mode: %v", err)
	}

	Warn("reconcile failed", "doctor", "doc1")

	logFile := filepath.Join(tempDir, "logs", "prescripto.log")
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Log file is empty after writing a warning")
	}
}

func TestLogWithoutInit(t *testing.T) {
	saved := Logger
	Logger = nil
	defer func() { Logger = saved }()

	// Should not panic
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")
}

func TestInitLevel(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{"default", Config{}, "warn", false},
		{"configured", Config{Level: "INFO"}, "info", false},
		{"debug wins", Config{Level: "error", Debug: true, Quiet: true}, "debug", false},
		{"unknown", Config{Level: "loud"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConfigDir = t.TempDir()
			err := Init(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Init failed: %v", err)
			}
			if got := Logger.GetLevel().String(); got != tt.want {
				t.Errorf("level = %s, want %s", got, tt.want)
			}
			if want := filepath.Join(tt.cfg.ConfigDir, "logs", "prescripto.log"); Path() != want {
				t.Errorf("Path() = %s, want %s", Path(), want)
			}
		})
	}
}
