package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// BytesToSize converts a byte count to a human-readable string.
func BytesToSize(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// CheckAndMakeDir ensures a directory exists, creating it if needed.
// Returns false if the directory could not be created.
func CheckAndMakeDir(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	if err == nil {
		return info.IsDir()
	}
	if !os.IsNotExist(err) {
		log.WithError(err).Errorf("Failed to stat directory %s", dir)
		return false
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.WithError(err).Errorf("Failed to create directory %s", dir)
		return false
	}
	return true
}

// SanitizePath cleans a path and strips any parent-directory escapes.
func SanitizePath(path string) string {
	cleaned := filepath.Clean(path)
	for strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		cleaned = strings.TrimPrefix(cleaned, ".."+string(filepath.Separator))
	}
	return cleaned
}

// SanitizeFilename strips path separators and control characters from a
// server-supplied filename so it cannot escape the output directory.
// An empty result falls back to "attachment".
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20:
			return -1
		case r == '/', r == '\\', r == ':':
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "attachment"
	}
	return name
}

// UniquePath returns path if nothing exists there, otherwise the first
// "name (N).ext" variant that is free. Existing files are never
// overwritten. Any stat error counts as free: if the directory is
// unreadable the subsequent create reports the real problem instead of
// the suffix search spinning on it.
func UniquePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
