package publisher_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sitemeter/internal/publisher"

	"github.com/coder/quartz"
)

func makeZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func newTestPublisher(t *testing.T) (*publisher.Publisher, *quartz.Mock, string) {
	t.Helper()
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	siteDir := filepath.Join(t.TempDir(), "website")
	return publisher.New(siteDir, clock), clock, siteDir
}

func TestInitSeedsDefaultSite(t *testing.T) {
	p, _, _ := newTestPublisher(t)

	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := p.Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(p.CurrentPath(), "index.html"))
	if err != nil {
		t.Fatalf("reading index.html through current link: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("default index.html is empty")
	}
}

func TestPublishSwapsCurrentLink(t *testing.T) {
	p, _, _ := newTestPublisher(t)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	token, err := p.Publish(makeZip(t, map[string]string{
		"index.html":    "<h1>new site</h1>",
		"css/style.css": "body {}",
		"js/app.js":     "console.log('hi')",
	}), "site.zip")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if token == "" {
		t.Fatal("Publish returned empty version token")
	}

	link, err := os.Readlink(p.CurrentPath())
	if err != nil {
		t.Fatalf("current is not a symlink: %v", err)
	}
	if link != "site-"+token {
		t.Fatalf("current -> %q, want site-%s", link, token)
	}

	data, err := os.ReadFile(filepath.Join(p.CurrentPath(), "index.html"))
	if err != nil {
		t.Fatalf("reading index.html: %v", err)
	}
	if string(data) != "<h1>new site</h1>" {
		t.Fatalf("index.html = %q", data)
	}
	if _, err := os.Stat(filepath.Join(p.CurrentPath(), "css", "style.css")); err != nil {
		t.Fatalf("nested entry missing: %v", err)
	}
}

func TestPublishWithoutInitCreatesSiteDir(t *testing.T) {
	p, _, siteDir := newTestPublisher(t)

	if _, err := os.Stat(siteDir); !os.IsNotExist(err) {
		t.Fatalf("site dir should not exist yet: %v", err)
	}

	token, err := p.Publish(makeZip(t, map[string]string{"index.html": "fresh"}), "site.zip")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	link, err := os.Readlink(p.CurrentPath())
	if err != nil {
		t.Fatalf("current is not a symlink: %v", err)
	}
	if link != "site-"+token {
		t.Fatalf("current -> %q, want site-%s", link, token)
	}
}

func TestPublishPreservesPreviousVersion(t *testing.T) {
	p, clock, siteDir := newTestPublisher(t)

	first, err := p.Publish(makeZip(t, map[string]string{"index.html": "v1"}), "site.zip")
	if err != nil {
		t.Fatalf("first Publish: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := p.Publish(makeZip(t, map[string]string{"index.html": "v2"}), "site.zip"); err != nil {
		t.Fatalf("second Publish: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(siteDir, "site-"+first, "index.html"))
	if err != nil {
		t.Fatalf("previous version gone: %v", err)
	}
	if string(data) != "v1" {
		t.Fatalf("previous version content = %q, want v1", data)
	}

	current, err := os.ReadFile(filepath.Join(p.CurrentPath(), "index.html"))
	if err != nil {
		t.Fatalf("reading current: %v", err)
	}
	if string(current) != "v2" {
		t.Fatalf("current content = %q, want v2", current)
	}
}

func TestPublishSameSecondUploadsGetDistinctTokens(t *testing.T) {
	p, _, _ := newTestPublisher(t)

	a, err := p.Publish(makeZip(t, map[string]string{"index.html": "a"}), "site.zip")
	if err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	b, err := p.Publish(makeZip(t, map[string]string{"index.html": "b"}), "site.zip")
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if a == b {
		t.Fatalf("same-second uploads share token %q", a)
	}
}

func TestPublishRejectsWrongExtension(t *testing.T) {
	p, _, _ := newTestPublisher(t)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	before, _ := os.Readlink(p.CurrentPath())

	_, err := p.Publish([]byte("not a zip"), "site.txt")
	if !errors.Is(err, publisher.ErrBadUpload) {
		t.Fatalf("err = %v, want ErrBadUpload", err)
	}

	after, _ := os.Readlink(p.CurrentPath())
	if after != before {
		t.Fatalf("current link changed from %q to %q on rejected upload", before, after)
	}
}

func TestPublishRejectsUnreadableArchive(t *testing.T) {
	p, _, _ := newTestPublisher(t)

	_, err := p.Publish([]byte("definitely not a zip"), "site.zip")
	if !errors.Is(err, publisher.ErrBadUpload) {
		t.Fatalf("err = %v, want ErrBadUpload", err)
	}
}

func TestPublishRejectsPathTraversal(t *testing.T) {
	p, _, siteDir := newTestPublisher(t)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	before, _ := os.Readlink(p.CurrentPath())

	_, err := p.Publish(makeZip(t, map[string]string{
		"index.html":       "ok",
		"../../etc/passwd": "evil",
	}), "site.zip")
	if !errors.Is(err, publisher.ErrBadUpload) {
		t.Fatalf("err = %v, want ErrBadUpload", err)
	}

	// Nothing may land outside the site directory.
	if _, err := os.Stat(filepath.Join(filepath.Dir(siteDir), "..", "etc", "passwd")); err == nil {
		t.Fatal("traversal entry was written outside the target")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(siteDir), "etc", "passwd")); err == nil {
		t.Fatal("traversal entry was written next to the site directory")
	}

	after, _ := os.Readlink(p.CurrentPath())
	if after != before {
		t.Fatalf("current link changed from %q to %q on rejected upload", before, after)
	}
}

func TestPublishBacksUpRealCurrentDirectory(t *testing.T) {
	p, _, siteDir := newTestPublisher(t)

	// Simulate a legacy layout where current is a plain directory.
	if err := os.MkdirAll(p.CurrentPath(), 0o755); err != nil {
		t.Fatalf("mkdir current: %v", err)
	}
	marker := filepath.Join(p.CurrentPath(), "legacy.txt")
	if err := os.WriteFile(marker, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	token, err := p.Publish(makeZip(t, map[string]string{"index.html": "new"}), "site.zip")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if _, err := os.Readlink(p.CurrentPath()); err != nil {
		t.Fatalf("current is not a symlink after publish: %v", err)
	}

	backup := filepath.Join(siteDir, "current-backup-"+token, "legacy.txt")
	data, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("backup of prior directory missing: %v", err)
	}
	if string(data) != "keep me" {
		t.Fatalf("backup content = %q", data)
	}
}
