package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables consulted by Load after the config file.
const (
	EnvFFmpeg     = "DSCONVERT_FFMPEG"
	EnvFFprobe    = "DSCONVERT_FFPROBE"
	EnvWorkers    = "DSCONVERT_WORKERS"
	EnvVideoCodec = "DSCONVERT_VIDEO_CODEC"
)

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dsconvert/config.toml")
}

// Load locates and parses a configuration file and applies environment
// overrides. It returns the config, the resolved file path and whether that
// file existed. An explicit path that does not exist is an error; a missing
// default file is not.
//
// Load does not validate: flags are applied afterwards and the caller runs
// [Config.Validate] on the final result.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if path != "" && !exists {
		return nil, "", false, fmt.Errorf("config file %s not found", resolvedPath)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	cfg.normalize()
	return &cfg, resolvedPath, exists, nil
}

// LoadEnvFile reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv(EnvFFmpeg); ok {
		c.Transcode.FFmpeg = v
	}
	if v, ok := lookupEnv(EnvFFprobe); ok {
		c.Transcode.FFprobe = v
	}
	if v, ok := lookupEnv(EnvVideoCodec); ok {
		c.Transcode.VideoCodec = v
	}
	if v, ok := lookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a whole number (got %q)", EnvWorkers, v)
		}
		c.Transcode.Workers = n
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// normalize trims string settings and restores defaults for values that a
// config file blanked out.
func (c *Config) normalize() {
	def := Default()
	c.Transcode.FFmpeg = orDefault(c.Transcode.FFmpeg, def.Transcode.FFmpeg)
	c.Transcode.FFprobe = orDefault(c.Transcode.FFprobe, def.Transcode.FFprobe)
	c.Transcode.VideoCodec = orDefault(c.Transcode.VideoCodec, def.Transcode.VideoCodec)
	c.Transcode.AudioCodec = orDefault(c.Transcode.AudioCodec, def.Transcode.AudioCodec)
	c.Layout.Name = strings.ToLower(orDefault(c.Layout.Name, def.Layout.Name))
	c.Logging.FileName = orDefault(c.Logging.FileName, def.Logging.FileName)
	c.Resume.Mode = ResumeMode(strings.ToLower(strings.TrimSpace(string(c.Resume.Mode))))
	c.Resume.ManifestBackend = ManifestBackend(strings.ToLower(strings.TrimSpace(string(c.Resume.ManifestBackend))))
	c.Logging.Color = ColorMode(strings.ToLower(strings.TrimSpace(string(c.Logging.Color))))

	exts := make([]string, 0, len(c.Layout.Extensions))
	for _, ext := range c.Layout.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	c.Layout.Extensions = exts
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// ExpandPath resolves a leading "~" and returns a cleaned absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
