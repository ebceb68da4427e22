package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// TestInitLogger ensures that the logger initializes properly.
func TestInitLogger(t *testing.T) {
	ResetLogger()
	t.Cleanup(ResetLogger)
	logPath := filepath.Join(t.TempDir(), "keydiff.log")
	SetLogPath(logPath)

	InitLogger()

	if log == nil {
		t.Fatal("Expected logger to be initialized, but got nil")
	}

	log.Info("Test log message")

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Fatal("Log file was not created")
	}
}

// TestGetLogger ensures that GetLogger returns a non-nil instance.
func TestGetLogger(t *testing.T) {
	ResetLogger()
	t.Cleanup(ResetLogger)
	logPath := filepath.Join(t.TempDir(), "keydiff.log")
	SetLogPath(logPath)

	// Retrieve logger (this will also initialize it)
	logger := GetLogger()
	if logger == nil {
		t.Fatal("Expected non-nil logger instance, but got nil")
	}
	if GetLogger() != logger {
		t.Fatal("Expected the same logger on repeated calls")
	}

	logger.Info("Logger retrieved successfully")
	Sync()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Fatal("Log file was not created")
	}
}

// TestLogOutput checks if logging produces expected results in the log file.
func TestLogOutput(t *testing.T) {
	ResetLogger()
	t.Cleanup(ResetLogger)
	logPath := filepath.Join(t.TempDir(), "keydiff.log")
	SetLogPath(logPath)

	GetLogger().Info("Writing to log file")
	Sync()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !bytes.Contains(data, []byte("Writing to log file")) {
		t.Fatal("Expected log message not found in log file")
	}
}

// TestSetLevel checks that messages below the level are dropped.
func TestSetLevel(t *testing.T) {
	ResetLogger()
	t.Cleanup(func() {
		_ = SetLevel("info")
		ResetLogger()
	})
	logPath := filepath.Join(t.TempDir(), "keydiff.log")
	SetLogPath(logPath)

	if err := SetLevel("loud"); err == nil {
		t.Fatal("Expected an error for an unknown level")
	}
	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}

	GetLogger().Info("hidden message")
	GetLogger().Warn("visible message")
	Sync()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if bytes.Contains(data, []byte("hidden message")) {
		t.Error("Info message should be filtered at warn level")
	}
	if !bytes.Contains(data, []byte("visible message")) {
		t.Error("Warn message missing from log file")
	}
}

// TestNoLogFile ensures an empty path disables file output.
func TestNoLogFile(t *testing.T) {
	ResetLogger()
	t.Cleanup(ResetLogger)
	SetLogPath("")

	GetLogger().Info("console only")
	if file != nil {
		t.Fatal("Expected no log file to be opened")
	}
}
