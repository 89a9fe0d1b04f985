// Copyright (c) 2024 BVK Chaitanya

/*
Package logdir implements an append-only log file backend that rotates the
file when it grows beyond a fixed size.

Active log file for a name is always <dirname>/<logname>.log so that readers
can find it without listing the directory. Rotated files are renamed with a
timestamp suffix.
*/
package logdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	// FileNameTimeLocation contains the timezone for the timestamp in the
	// rotated log file names.
	FileNameTimeLocation = time.UTC

	// FileSizeLimitMB contains the maximum size limit for the log files.
	FileSizeLimitMB int64 = 100

	// FileMode contains the file mode and permissions value for the log files.
	FileMode = os.FileMode(0600)

	// DirMode contains the permissions for the log directories.
	DirMode = os.FileMode(0700)
)

type Backend struct {
	mu sync.Mutex

	fp *os.File

	size int64

	dirname, logname string
}

// New opens, or creates, the log file in the directory. Directory is
// created if it doesn't exist.
func New(dirname, logname string) (*Backend, error) {
	if err := os.MkdirAll(dirname, DirMode); err != nil {
		return nil, fmt.Errorf("could not create log directory %q: %w", dirname, err)
	}
	fp, size, err := openFile(dirname, logname)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	b := &Backend{
		fp:      fp,
		size:    size,
		dirname: dirname,
		logname: logname,
	}
	return b, nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fp == nil {
		return os.ErrClosed
	}
	err := b.fp.Close()
	b.fp = nil
	return err
}

// Path returns the active log file path.
func (b *Backend) Path() string {
	return filepath.Join(b.dirname, b.logname+".log")
}

func rotatedName(logname string, at time.Time) string {
	at = at.In(FileNameTimeLocation)
	uniq := fmt.Sprintf("%d%02d%02d-%02d%02d%02d.%09d", at.Year(), at.Month(), at.Day(), at.Hour(), at.Minute(), at.Second(), at.Nanosecond())
	return fmt.Sprintf("%s-%s.log", logname, uniq)
}

func openFile(dirname, logname string) (*os.File, int64, error) {
	fp, err := os.OpenFile(filepath.Join(dirname, logname+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, FileMode)
	if err != nil {
		return nil, -1, fmt.Errorf("could not open/create log file: %w", err)
	}
	finfo, err := fp.Stat()
	if err != nil {
		fp.Close()
		return nil, -1, fmt.Errorf("could not get file size: %w", err)
	}
	return fp, finfo.Size(), nil
}

func (b *Backend) rotate() error {
	b.fp.Close()
	b.fp = nil
	if err := os.Rename(b.Path(), filepath.Join(b.dirname, rotatedName(b.logname, time.Now()))); err != nil {
		return fmt.Errorf("could not rename log file: %w", err)
	}
	fp, size, err := openFile(b.dirname, b.logname)
	if err != nil {
		return fmt.Errorf("could not open new log file: %w", err)
	}
	b.fp, b.size = fp, size
	return nil
}

func (b *Backend) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fp == nil {
		return 0, os.ErrClosed
	}
	if b.size > 0 && b.size+int64(len(data)) > FileSizeLimitMB*1024*1024 {
		if err := b.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := b.fp.Write(data)
	b.size += int64(n)
	return n, err
}
