package fetch

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

type entry struct {
	name, body, link string
	dir              bool
}

func tarball(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		h := &tar.Header{Name: e.name, Mode: 0o644}
		switch {
		case e.dir:
			h.Typeflag, h.Mode = tar.TypeDir, 0o755
		case e.link != "":
			h.Typeflag, h.Linkname = tar.TypeSymlink, e.link
		default:
			h.Typeflag, h.Size = tar.TypeReg, int64(len(e.body))
		}
		if err := tw.WriteHeader(h); err != nil {
			t.Fatal(err)
		}
		if h.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func gzipped(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func xzipped(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xw.Write(b); err != nil {
		t.Fatal(err)
	}
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var sourceTree = []entry{
	{name: "libxslt-1.1.29/", dir: true},
	{name: "libxslt-1.1.29/configure", body: "#!/bin/sh\n"},
	{name: "libxslt-1.1.29/win32/Makefile.msvc", body: "LIBS = wsock32.lib\n"},
}

func TestFetch(t *testing.T) {
	archive := gzipped(t, tarball(t, sourceTree))
	sum := sha256.Sum256(archive)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sources/libxslt-1.1.29.tar.gz" {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := New(nil)
	if err := f.Fetch(context.Background(), srv.URL+"/sources/libxslt-1.1.29.tar.gz", dir, hex.EncodeToString(sum[:])); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "libxslt-1.1.29", "win32", "Makefile.msvc"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(got) != "LIBS = wsock32.lib\n" {
		t.Fatalf("extracted content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "libxslt-1.1.29.tar.gz")); !os.IsNotExist(err) {
		t.Fatalf("archive not removed: %v", err)
	}
}

func TestFetchChecksumMismatch(t *testing.T) {
	archive := gzipped(t, tarball(t, sourceTree))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	dir := t.TempDir()
	err := New(nil).Fetch(context.Background(), srv.URL+"/libxslt-1.1.29.tar.gz", dir, "00")
	if !errors.Is(err, ErrChecksum) {
		t.Fatalf("Fetch() error = %v, want ErrChecksum", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "libxslt-1.1.29")); !os.IsNotExist(err) {
		t.Fatal("source extracted despite checksum mismatch")
	}
}

func TestDownloadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	err := New(nil).Download(context.Background(), srv.URL+"/missing.tar.gz", filepath.Join(t.TempDir(), "x.tar.gz"))
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("Download() error = %v, want ErrStatus", err)
	}
}

func TestExtractXZ(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "libxslt-1.1.34.tar.xz")
	if err := os.WriteFile(archive, xzipped(t, tarball(t, sourceTree)), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Extract(archive, dir); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "libxslt-1.1.29", "configure")); err != nil {
		t.Fatalf("configure missing: %v", err)
	}
}

func TestExtractRejectsEscapes(t *testing.T) {
	tests := []struct {
		name    string
		entries []entry
	}{
		{"parent dir", []entry{{name: "../evil", body: "x"}}},
		{"absolute", []entry{{name: "/etc/evil", body: "x"}}},
		{"symlink out", []entry{{name: "src/link", link: "../../etc"}}},
		{"chained symlinks", []entry{
			{name: "d/", dir: true},
			{name: "d/l", link: ".."},
			{name: "d/l/m", link: ".."},
			{name: "d/l/m/evil", body: "x"},
		}},
		{"file through symlink", []entry{
			{name: "d/", dir: true},
			{name: "d/l", link: "."},
			{name: "d/l/evil", body: "x"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			dir := filepath.Join(parent, "src")
			archive := filepath.Join(parent, "bad.tar.gz")
			if err := os.WriteFile(archive, gzipped(t, tarball(t, tt.entries)), 0o644); err != nil {
				t.Fatal(err)
			}
			if err := Extract(archive, dir); !errors.Is(err, ErrUnsafePath) {
				t.Fatalf("Extract() error = %v, want ErrUnsafePath", err)
			}
			if _, err := os.Lstat(filepath.Join(parent, "evil")); !os.IsNotExist(err) {
				t.Fatalf("file written outside the target dir: %v", err)
			}
		})
	}
}

func TestArchiveName(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"http://xmlsoft.org/sources/libxslt-1.1.29.tar.gz", "libxslt-1.1.29.tar.gz", false},
		{"https://mirror.example/libxslt-1.1.29.tar.xz?x=1#top", "libxslt-1.1.29.tar.xz", false},
		{"https://mirror.example/", "", true},
		{"://bad", "", true},
	}
	for _, tt := range tests {
		got, err := archiveName(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("archiveName(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("archiveName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFetchURLWithQuery(t *testing.T) {
	data := gzipped(t, tarball(t, sourceTree))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := New(nil).Fetch(context.Background(), srv.URL+"/libxslt-1.1.29.tar.gz?mirror=1", dir, ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "libxslt-1.1.29", "configure")); err != nil {
		t.Fatalf("configure missing: %v", err)
	}
}

func TestExtractUnsupported(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "src.zip")
	if err := os.WriteFile(archive, []byte("PK"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Extract(archive, t.TempDir()); err == nil {
		t.Fatal("Extract(.zip) error = nil")
	}
}
