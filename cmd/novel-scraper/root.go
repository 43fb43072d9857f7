package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/novel-scraper/pkg/config"
)

// newRootCmd assembles the command tree. Commands write to stdout/stderr instead of the process streams.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "novel-scraper",
		Short:         "Download Pixiv novels and series into a single text or EPUB file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(
		newDownloadCmd(stdout, stderr),
		newValidateCmd(stdout, stderr),
		newVersionCmd(stdout),
	)
	return root
}

// exitError carries a process exit code out of a command.
// A nil err means the command already reported everything it had to say.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// exitCode maps the result of Execute to the process exit code: 0 ok, 2 completed with failures, 1 otherwise.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// loadConfig reads the YAML file at path on top of the defaults
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := config.Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// loadConfigOrDefault is loadConfig for the download command: a missing file is not fatal.
func loadConfigOrDefault(path string, log logrus.FieldLogger) (*config.AppConfig, error) {
	cfg, err := loadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warnf("Config file '%s' not found, using defaults", path)
		return config.Default(), nil
	}
	return cfg, err
}
