package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/ncobase/collab/config"
)

func TestFileSystemPutGetDelete(t *testing.T) {
	fs, err := NewFileSystem(t.TempDir(), "https://cdn.example.edu/files/")
	if err != nil {
		t.Fatal(err)
	}

	obj, err := fs.Put("t1/p1/report.pdf", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if obj.Size != 5 || obj.Name != "report.pdf" {
		t.Fatalf("object = %+v", obj)
	}

	rc, err := fs.GetStream("t1/p1/report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "hello" {
		t.Fatalf("body = %q", body)
	}

	url, _ := fs.GetURL("t1/p1/report.pdf")
	if url != "https://cdn.example.edu/files/t1/p1/report.pdf" {
		t.Fatalf("url = %s", url)
	}

	objects, err := fs.List("t1")
	if err != nil || len(objects) != 1 || objects[0].Path != "t1/p1/report.pdf" {
		t.Fatalf("List = %v, %v", objects, err)
	}

	if err := fs.Delete("t1/p1/report.pdf"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Delete("t1/p1/report.pdf"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestFileSystemKeysStayInsideFolder(t *testing.T) {
	fs, err := NewFileSystem(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	got := fs.GetFullPath("../../etc/passwd")
	if !strings.HasPrefix(got, fs.Folder) {
		t.Fatalf("path escaped folder: %s", got)
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("College A", "p1", "Final Report (v2).PDF")
	if !strings.HasPrefix(key, "college-a/p1/") {
		t.Fatalf("key = %s", key)
	}
	if !strings.HasSuffix(key, "-final-report-v2.pdf") {
		t.Fatalf("key = %s", key)
	}
	if k := ObjectKey("t", "p", ".."); !strings.HasSuffix(k, "-file") {
		t.Fatalf("key = %s", k)
	}
}

func TestNewStorageRejectsUnknownProvider(t *testing.T) {
	if _, err := NewStorage(&config.Storage{Provider: "ftp"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewS3(&config.Storage{Provider: "aws-s3"}); err == nil {
		t.Fatal("expected missing credentials error")
	}
	if MaxUploadSize(&config.Storage{}) != DefaultMaxUploadSize {
		t.Fatal("default upload size")
	}
}
