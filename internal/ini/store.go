package ini

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/creachadair/atomicfile"

	"settings-converter/internal/scerrors"
)

const defaultPerm fs.FileMode = 0o644

// ParseError describes a line the strict parser rejected.
type ParseError struct {
	Path string
	Line int
	Text string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: cannot parse %q", e.Line, e.Text)
	}
	return fmt.Sprintf("%s:%d: cannot parse %q", e.Path, e.Line, e.Text)
}

// Load reads and parses the file at path. The file is closed before Load
// returns. A missing file yields a KindNotFound error that also matches
// fs.ErrNotExist.
func Load(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, scerrors.New(scerrors.KindNotFound, err)
		}
		return nil, scerrors.New(scerrors.KindRead, err)
	}
	return Parse(data, append(opts, withPath(path))...)
}

// Save writes the document to path through a temporary file that is renamed
// into place, keeping the permissions of the file being replaced.
func (d *Document) Save(path string) error {
	perm := defaultPerm
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := atomicfile.WriteData(path, d.Bytes(), perm); err != nil {
		return scerrors.New(scerrors.KindWrite, fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}
