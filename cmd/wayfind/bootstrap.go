package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/wayfind-tools/wayfind/pkg/wayfind/config"
	"github.com/wayfind-tools/wayfind/pkg/wayfind/logging"
)

// rotationMaxSize parses the configured rotation size ("10MB"). Zero on
// parse failure lets the rotation default apply.
func rotationMaxSize() int64 {
	s := viper.GetString("logging.rotation.max_size")
	if s == "" {
		return 0
	}
	size, err := humanize.ParseBytes(s)
	if err != nil {
		return 0
	}
	return int64(size)
}

// loggingConfig builds the logging configuration from viper keys.
func loggingConfig() logging.Config {
	cfg := logging.Config{
		Level: viper.GetString("logging.level"),
		Path:  viper.GetString("logging.path"),
		Rotation: logging.RotationConfig{
			MaxSize:    rotationMaxSize(),
			MaxAge:     viper.GetInt("logging.rotation.max_age"),
			MaxBackups: viper.GetInt("logging.rotation.max_backups"),
			Daily:      viper.GetBool("logging.rotation.daily"),
		},
		Components: viper.GetStringMapString("logging.components"),
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Path == "" {
		cfg.Path = config.DefaultLogPath()
	}
	return cfg
}

// initLogging initializes file logging for normal command runs. Console
// output mirrors to stderr only in verbose mode so stdout stays pipeable.
func initLogging() error {
	cfg := loggingConfig()
	if getVerbose() {
		cfg.ConsoleLevel = "debug"
	}
	return logging.Init(cfg)
}

// initTUILogging re-initializes logging for TUI mode: console output off
// (the picker owns the screen), entries buffered for the log viewer.
func initTUILogging() error {
	cfg := loggingConfig()
	cfg.TUIMode = true
	return logging.Init(cfg)
}

func closeLogging() {
	_ = logging.Close()
}
