package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the configuration for the logger
type Config struct {
	Level         string `yaml:"level"          json:"level"`
	FilePath      string `yaml:"file_path"      json:"file_path"`
	Format        string `yaml:"format"         json:"format"`
	WithTrace     bool   `yaml:"with_trace"     json:"with_trace"`
	EnableConsole bool   `yaml:"enable_console" json:"enable_console"`
	InstantSync   bool   `yaml:"instant_sync"   json:"instant_sync"`
}

// Initialize builds the global logger from config and installs it.
func Initialize(config Config) error {
	GlobalEnableConsoleLogger = config.EnableConsole
	GlobalEnableFileLogger = config.FilePath != ""
	GlobalInstantSync = config.InstantSync
	if config.FilePath != "" {
		GlobalLogPath = config.FilePath
	}

	logLevel := config.Level
	if logLevel == "" {
		logLevel = InfoLogLevel
	}
	GlobalLogLevel = logLevel
	level := getZapLevel(logLevel)

	previousFile := GlobalLogFile
	var newFile *os.File
	var cores []zapcore.Core

	if config.EnableConsole {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderConfig()),
			zapcore.AddSync(os.Stderr),
			level,
		))
	}

	if config.FilePath != "" {
		var encoder zapcore.Encoder
		if config.Format == "json" {
			encoder = zapcore.NewJSONEncoder(baseEncoderConfig())
		} else {
			encoder = zapcore.NewConsoleEncoder(baseEncoderConfig())
		}

		file, err := os.OpenFile(
			config.FilePath,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY,
			LogFilePermissions,
		)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		newFile = file

		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(file), level))
	}

	opts := []zap.Option{zap.AddCaller()}
	if config.WithTrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	l := zap.New(zapcore.NewTee(cores...), opts...).Named(LoggerName)
	SetGlobalLogger(&Logger{Logger: l})

	// Release the file held by the logger just replaced.
	GlobalLogFile = newFile
	if previousFile != nil {
		_ = previousFile.Close()
	}

	return nil
}
