package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Paths are checked only when
// requirePaths is set, so diagnostics can run without input/output dirs.
func (c *Config) Validate(requirePaths bool) error {
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validateResume(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if requirePaths && (c.InputDir == "" || c.OutputDir == "") {
		return errors.New("need exactly input_dir and output_dir")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	t := c.Transcode
	if t.Workers < 1 {
		return fmt.Errorf("transcode.workers must be at least 1 (got %d)", t.Workers)
	}
	if t.JobTimeoutSeconds < 0 {
		return errors.New("transcode.job_timeout_seconds must be >= 0")
	}
	if t.VerifyTolerance < 0 {
		return errors.New("transcode.verify_tolerance must be >= 0")
	}
	for _, arg := range t.ExtraArgs {
		switch strings.TrimSpace(arg) {
		case "-i", "-y", "-n":
			return fmt.Errorf("transcode.extra_args must not contain %q", arg)
		}
	}
	return nil
}

func (c *Config) validateLayout() error {
	if len(c.Layout.Extensions) == 0 {
		return errors.New("layout.extensions must include at least one extension")
	}
	if strings.ContainsAny(c.Layout.CameraPrefix, `/\`) {
		return errors.New("layout.camera_prefix must not contain path separators")
	}
	return nil
}

func (c *Config) validateResume() error {
	switch c.Resume.Mode {
	case ResumeExists, ResumeManifest:
	default:
		return fmt.Errorf("invalid resume.mode %q (use 'exists' or 'manifest')", c.Resume.Mode)
	}
	switch c.Resume.ManifestBackend {
	case BackendSQLite, BackendPebble:
	default:
		return fmt.Errorf("invalid resume.manifest_backend %q (use 'sqlite' or 'pebble')", c.Resume.ManifestBackend)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid logging.color %q (use 'auto', 'always' or 'never')", c.Logging.Color)
	}
	if strings.ContainsAny(c.Logging.FileName, `/\`) {
		return errors.New("logging.file_name must be a bare file name")
	}
	return nil
}
