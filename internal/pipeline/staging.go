package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jittakal/s3selectlab/pkg/employee"
	"github.com/jittakal/s3selectlab/pkg/encoder"
)

// stagedFile is an encoded temp file positioned at offset 0, ready to upload.
type stagedFile struct {
	f    *os.File
	path string
}

// stage encodes employees into a new temp file under dir. The file is
// removed again if encoding fails.
func stage(dir string, enc encoder.Encoder, employees employee.Employees) (*stagedFile, *employee.FileStats, error) {
	f, err := os.CreateTemp(dir, "employees-*"+enc.FileExtension())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	sf := &stagedFile{f: f, path: f.Name()}

	stats, err := enc.Encode(f, employees)
	if err != nil {
		sf.remove(nil)
		return nil, nil, err
	}
	if err := f.Sync(); err != nil {
		sf.remove(nil)
		return nil, nil, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		sf.remove(nil)
		return nil, nil, fmt.Errorf("failed to rewind temp file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		sf.remove(nil)
		return nil, nil, fmt.Errorf("failed to stat temp file: %w", err)
	}
	stats.SizeBytes = info.Size()

	return sf, stats, nil
}

func (s *stagedFile) remove(logger *slog.Logger) {
	_ = s.f.Close()
	if err := os.Remove(s.path); err != nil && logger != nil {
		logger.Warn("failed to remove temp file", "path", s.path, "error", err)
	}
}
