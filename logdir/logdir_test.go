package logdir

import (
	"log"
	"os"
	"path/filepath"
	"testing"
)

func TestLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "trader")
	b, err := New(dir, "info")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	log := log.New(b, "", 0)
	for i := 0; i < 10; i++ {
		log.Printf("hello world")
	}
	data, err := os.ReadFile(filepath.Join(dir, "info.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 10*len("hello world\n") {
		t.Fatalf("unexpected log file size %d", len(data))
	}
}

func TestLogDirRotate(t *testing.T) {
	old := FileSizeLimitMB
	FileSizeLimitMB = 1
	defer func() { FileSizeLimitMB = old }()

	dir := t.TempDir()
	b, err := New(dir, "error")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	chunk := make([]byte, 600*1024)
	for i := 0; i < 3; i++ {
		if _, err := b.Write(chunk); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) < 2 {
		t.Fatalf("want rotated log files, got %d files", len(entries))
	}
	finfo, err := os.Stat(b.Path())
	if err != nil {
		t.Fatal(err)
	}
	if finfo.Size() != int64(len(chunk)) {
		t.Fatalf("active log file must hold only the last chunk, has %d bytes", finfo.Size())
	}
}
