// Package screenshots writes PNG captures to the screenshot directory.
package screenshots

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/ports"
)

const maxNameLen = 100

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

type Store struct {
	dir string
	now func() time.Time
}

func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// WithNow is useful for tests.
func (s *Store) WithNow(now func() time.Time) *Store {
	s.now = now
	return s
}

var _ ports.ScreenshotStore = (*Store)(nil)

// Save writes png as <dir>/<sanitised name>_<YYYYmmdd_HHMMSS>.png. A capture
// with the same name in the same second gets a numeric suffix; names are
// claimed atomically so concurrent scenarios never overwrite each other.
func (s *Store) Save(name string, png []byte) (domain.Screenshot, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.Screenshot{}, &domain.OpError{Op: "screenshots.mkdir", Kind: domain.KindExecution, Path: s.dir, Err: err}
	}

	taken := s.now()
	base := Sanitize(name) + "_" + taken.Format("20060102_150405")
	path := filepath.Join(s.dir, base+".png")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	for i := 2; os.IsExist(err); i++ {
		path = filepath.Join(s.dir, fmt.Sprintf("%s_%d.png", base, i))
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	}
	if err != nil {
		return domain.Screenshot{}, &domain.OpError{Op: "screenshots.write", Kind: domain.KindExecution, Path: path, Err: err}
	}
	_, err = f.Write(png)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return domain.Screenshot{}, &domain.OpError{Op: "screenshots.write", Kind: domain.KindExecution, Path: path, Err: err}
	}
	return domain.Screenshot{Name: name, Path: path, Taken: taken}, nil
}

// Sanitize turns a step or scenario name into a file name component.
func Sanitize(name string) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_"), "_")
	if len(s) > maxNameLen {
		s = s[:maxNameLen]
	}
	if s == "" {
		return "screenshot"
	}
	return s
}
