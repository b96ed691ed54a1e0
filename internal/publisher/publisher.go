// Package publisher materializes uploaded site archives into versioned
// directories and atomically repoints the current-site link.
package publisher

import (
	"archive/zip"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/coder/quartz"
)

//go:embed defaultsite
var defaultSite embed.FS

// ErrBadUpload marks client input errors: wrong extension, unreadable
// archive, or entries that would escape the target directory. Callers
// map it to a 400 response.
var ErrBadUpload = errors.New("bad upload")

// Publisher manages the versioned site directories under siteDir and
// the "current" symlink that selects the served one.
type Publisher struct {
	siteDir string
	clock   quartz.Clock

	// mu serializes the link swap; concurrent uploads may extract in
	// parallel but must not interleave relinking.
	mu sync.Mutex
}

// New returns a Publisher rooted at siteDir.
func New(siteDir string, clock quartz.Clock) *Publisher {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Publisher{siteDir: siteDir, clock: clock}
}

// CurrentPath returns the path of the current-site link.
func (p *Publisher) CurrentPath() string {
	return filepath.Join(p.siteDir, "current")
}

// Init ensures the site directory exists and, on first start, seeds the
// current link with the built-in placeholder site.
func (p *Publisher) Init() error {
	if err := os.MkdirAll(p.siteDir, 0o755); err != nil {
		return fmt.Errorf("creating site dir: %w", err)
	}

	if _, err := os.Lstat(p.CurrentPath()); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking current link: %w", err)
	}

	target := filepath.Join(p.siteDir, "site-default")
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("creating default site dir: %w", err)
	}

	err := fs.WalkDir(defaultSite, "defaultsite", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := defaultSite.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("defaultsite", filepath.FromSlash(path))
		if err != nil {
			return err
		}
		dst := filepath.Join(target, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	})
	if err != nil {
		return fmt.Errorf("seeding default site: %w", err)
	}

	return p.swap(target, "default")
}

// Publish extracts the uploaded zip archive into a fresh versioned
// directory and repoints the current link to it, returning the version
// token. The link is only touched after a complete extraction, so a bad
// archive or filesystem failure never exposes a partial site.
func (p *Publisher) Publish(archive []byte, filename string) (string, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".zip") {
		return "", fmt.Errorf("%w: only .zip archives are accepted, got %q", ErrBadUpload, filename)
	}

	// Stage the payload on disk first, the way it arrived.
	tmp, err := os.CreateTemp("", "sitemeter-upload-*.zip")
	if err != nil {
		return "", fmt.Errorf("staging upload: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(archive); err != nil {
		return "", fmt.Errorf("staging upload: %w", err)
	}

	zr, err := zip.OpenReader(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("%w: not a readable zip archive", ErrBadUpload)
	}
	defer func() { _ = zr.Close() }()

	// Validate every entry before writing anything.
	for _, f := range zr.File {
		if err := checkEntry(f); err != nil {
			return "", err
		}
	}

	token, target, err := p.makeVersionDir()
	if err != nil {
		return "", err
	}

	for _, f := range zr.File {
		if err := extractEntry(f, target); err != nil {
			_ = os.RemoveAll(target)
			return "", err
		}
	}

	if err := p.swap(target, token); err != nil {
		_ = os.RemoveAll(target)
		return "", err
	}
	return token, nil
}

// makeVersionDir generates a timestamp token and creates its directory.
// Same-second uploads get an incrementing suffix instead of colliding.
func (p *Publisher) makeVersionDir() (string, string, error) {
	if err := os.MkdirAll(p.siteDir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating site dir: %w", err)
	}

	base := p.clock.Now().Format("20060102-150405")

	token := base
	for i := 2; ; i++ {
		target := filepath.Join(p.siteDir, "site-"+token)
		err := os.Mkdir(target, 0o755)
		if err == nil {
			return token, target, nil
		}
		if !os.IsExist(err) {
			return "", "", fmt.Errorf("creating version dir: %w", err)
		}
		token = fmt.Sprintf("%s-%d", base, i)
	}
}

func checkEntry(f *zip.File) error {
	name := f.Name
	if name == "" {
		return fmt.Errorf("%w: archive contains an unnamed entry", ErrBadUpload)
	}
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return fmt.Errorf("%w: entry %q escapes the target directory", ErrBadUpload, name)
	}
	mode := f.Mode()
	if !mode.IsRegular() && !mode.IsDir() {
		return fmt.Errorf("%w: entry %q has unsupported type", ErrBadUpload, name)
	}
	return nil
}

func extractEntry(f *zip.File, target string) error {
	dst := filepath.Join(target, filepath.FromSlash(f.Name))

	if f.Mode().IsDir() {
		return os.MkdirAll(dst, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	defer func() { _ = src.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return out.Close()
}

// swap repoints the current link at target. An existing symlink is
// replaced by renaming a fresh link over it, which is atomic on POSIX;
// a pre-existing real directory is renamed aside as a timestamped
// backup first and never deleted.
func (p *Publisher) swap(target, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.CurrentPath()
	if fi, err := os.Lstat(current); err == nil && fi.Mode()&os.ModeSymlink == 0 {
		backup := filepath.Join(p.siteDir, "current-backup-"+token)
		if err := os.Rename(current, backup); err != nil {
			return fmt.Errorf("moving prior site aside: %w", err)
		}
	}

	tmpLink := filepath.Join(p.siteDir, ".current-"+token)
	_ = os.Remove(tmpLink)
	if err := os.Symlink(filepath.Base(target), tmpLink); err != nil {
		return fmt.Errorf("creating site link: %w", err)
	}
	if err := os.Rename(tmpLink, current); err != nil {
		_ = os.Remove(tmpLink)
		return fmt.Errorf("swapping site link: %w", err)
	}
	return nil
}
