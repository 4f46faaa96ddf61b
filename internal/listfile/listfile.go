// Package listfile reads and writes the flat-text workshop list: the AppID on
// the first line followed by one URL per line.
package listfile

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// List is a saved workshop list.
type List struct {
	AppID string
	URLs  []string
}

// Save writes l to path, creating parent directories as needed.
func Save(fs afero.Fs, path string, l List) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(strings.TrimSpace(l.AppID))
	buf.WriteByte('\n')
	for _, u := range l.URLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		buf.WriteString(u)
		buf.WriteByte('\n')
	}

	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("cannot write list file %s: %w", path, err)
	}
	return nil
}

// Load reads a list written by Save. Blank lines and surrounding whitespace
// are ignored; an empty file yields an empty list.
func Load(fs afero.Fs, path string) (List, error) {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return List{}, fmt.Errorf("list file %s: %w", path, os.ErrNotExist)
		}
		return List{}, fmt.Errorf("cannot open list file %s: %w", path, err)
	}
	defer f.Close()

	l := List{URLs: []string{}}
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false
			l.AppID = line
			continue
		}
		if line == "" {
			continue
		}
		l.URLs = append(l.URLs, line)
	}
	if err := scanner.Err(); err != nil {
		return List{}, fmt.Errorf("cannot read list file %s: %w", path, err)
	}
	return l, nil
}
