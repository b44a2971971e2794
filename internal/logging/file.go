package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	writerMu  sync.Mutex
	logWriter *lumberjack.Logger
)

// ConfigureLogOutput switches between stderr and a size-rotated log file.
// The file lives under dir (created if missing); an empty dir means "logs"
// in the working directory.
func ConfigureLogOutput(toFile bool, dir string) error {
	writerMu.Lock()
	defer writerMu.Unlock()

	if toFile {
		if dir == "" {
			dir = "logs"
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("logging: failed to create log directory: %w", err)
		}
		if logWriter != nil {
			_ = logWriter.Close()
		}
		logWriter = &lumberjack.Logger{
			Filename:   filepath.Join(dir, "exnest.log"),
			MaxSize:    10,
			MaxBackups: 3,
		}
		SetOutput(logWriter)
		return nil
	}

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}
	SetOutput(os.Stderr)
	return nil
}

// CloseLogOutput closes the rotating file writer if one is active.
func CloseLogOutput() {
	writerMu.Lock()
	defer writerMu.Unlock()

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}
}
