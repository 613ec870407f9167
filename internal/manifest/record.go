package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Record describes one published output.
type Record struct {
	RelPath       string    `json:"rel_path"`
	SourceSize    int64     `json:"source_size"`
	SourceModTime time.Time `json:"source_mod_time"`
	OutputSize    int64     `json:"output_size"`
	OutputSHA256  string    `json:"output_sha256"`
	RunID         string    `json:"run_id"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Key normalizes a relative path into the form records are stored under.
func Key(rel string) string { return filepath.ToSlash(filepath.Clean(rel)) }

// HashFile returns the hex SHA-256 and size of the file at path.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Observe builds the record for a freshly published dst converted from src.
func Observe(rel, src, dst, runID string) (Record, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return Record{}, fmt.Errorf("stat source: %w", err)
	}
	sum, size, err := HashFile(dst)
	if err != nil {
		return Record{}, fmt.Errorf("hash output: %w", err)
	}
	return Record{
		RelPath:       Key(rel),
		SourceSize:    srcInfo.Size(),
		SourceModTime: srcInfo.ModTime().UTC(),
		OutputSize:    size,
		OutputSHA256:  sum,
		RunID:         runID,
		CompletedAt:   time.Now().UTC(),
	}, nil
}

// Verify reports whether rec still describes src and dst: the source is
// unchanged since the conversion and the destination holds exactly the bytes
// that were published. reason explains a mismatch.
func (rec Record) Verify(src, dst string) (ok bool, reason string, err error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, "", fmt.Errorf("stat source: %w", err)
	}
	if srcInfo.Size() != rec.SourceSize || !srcInfo.ModTime().Equal(rec.SourceModTime) {
		return false, "source changed since last conversion", nil
	}

	dstInfo, err := os.Stat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return false, "output missing", nil
		}
		return false, "", fmt.Errorf("stat output: %w", err)
	}
	if dstInfo.Size() != rec.OutputSize {
		return false, "output size differs from manifest", nil
	}
	sum, _, err := HashFile(dst)
	if err != nil {
		return false, "", err
	}
	if sum != rec.OutputSHA256 {
		return false, "output checksum differs from manifest", nil
	}
	return true, "", nil
}
