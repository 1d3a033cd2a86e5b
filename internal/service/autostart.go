package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/plexsphere/hwservice/internal/fsutil"
)

const autostartHeader = "#!/bin/sh\n"

// AutostartLine is the boot script line that recreates the registration of d.
func AutostartLine(d Descriptor) string {
	return fmt.Sprintf("ln -s %s %s", d.Dir, d.Link)
}

// EnsureAutostartFile creates path as an executable shell script when it is
// missing, and adds the execute bits when it exists without them.
// It reports whether the file was created.
func EnsureAutostartFile(path string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("service: create autostart directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o755)
	switch {
	case err == nil:
		if _, err := f.WriteString(autostartHeader); err != nil {
			f.Close()
			return false, fmt.Errorf("service: write autostart header: %w", err)
		}
		if err := f.Chmod(0o755); err != nil {
			f.Close()
			return false, fmt.Errorf("service: chmod autostart file: %w", err)
		}
		if err := f.Close(); err != nil {
			return false, fmt.Errorf("service: close autostart file: %w", err)
		}
		return true, nil
	case errors.Is(err, os.ErrExist):
		if err := fsutil.AddMode(path, 0o111); err != nil {
			return false, fmt.Errorf("service: chmod autostart file: %w", err)
		}
		return false, nil
	default:
		return false, fmt.Errorf("service: create autostart file: %w", err)
	}
}

// AddAutostart appends the autostart line for d unless a line already
// references d.Link. It reports whether a line was appended.
func AddAutostart(path string, d Descriptor) (bool, error) {
	var added bool
	err := fsutil.WithLock(path, 0o755, func(f *os.File) error {
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		content := string(data)
		if HasAutostart(content, d) {
			return nil
		}

		var b strings.Builder
		if content != "" && !strings.HasSuffix(content, "\n") {
			b.WriteByte('\n')
		}
		b.WriteString(AutostartLine(d))
		b.WriteByte('\n')

		// ReadAll left the offset at EOF.
		if _, err := f.WriteString(b.String()); err != nil {
			return err
		}
		added = true
		return f.Sync()
	})
	if err != nil {
		return false, fmt.Errorf("service: add autostart line: %w", err)
	}
	return added, nil
}

// RemoveAutostart drops every line that references d.Link and reports how
// many were removed. A missing file counts as nothing to remove.
func RemoveAutostart(path string, d Descriptor) (int, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	var removed int
	err := fsutil.WithLock(path, 0o755, func(f *os.File) error {
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}

		lines := strings.SplitAfter(string(data), "\n")
		kept := lines[:0]
		for _, line := range lines {
			if referencesLink(line, d.Link) {
				removed++
				continue
			}
			kept = append(kept, line)
		}
		if removed == 0 {
			return nil
		}

		if err := f.Truncate(0); err != nil {
			return err
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if _, err := f.WriteString(strings.Join(kept, "")); err != nil {
			return err
		}
		return f.Sync()
	})
	if err != nil {
		return 0, fmt.Errorf("service: remove autostart line: %w", err)
	}
	return removed, nil
}

// HasAutostart reports whether content has a line referencing d.Link.
// Fields are compared whole, so a link never matches a longer one sharing its prefix.
func HasAutostart(content string, d Descriptor) bool {
	for _, line := range strings.Split(content, "\n") {
		if referencesLink(line, d.Link) {
			return true
		}
	}
	return false
}

func referencesLink(line, link string) bool {
	for _, field := range strings.Fields(line) {
		if field == link {
			return true
		}
	}
	return false
}
