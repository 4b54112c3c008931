package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"loadstar/internal/logger"
)

// DefaultFontRelease is the GitHub API endpoint of the latest Nerd Fonts release.
const DefaultFontRelease = "https://api.github.com/repos/ryanoasis/nerd-fonts/releases/latest"

// githubRelease is the part of a GitHub release response we read.
type githubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Fonts installs Nerd Font families from GitHub releases into Dir.
type Fonts struct {
	Client *http.Client
	// ReleaseURL defaults to DefaultFontRelease.
	ReleaseURL string
	Dir        string
}

var fontExts = []string{".ttf", ".otf"}

// Installed reports whether Dir already holds a font file of family.
func (f *Fonts) Installed(family string) bool {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), family) && isFontFile(e.Name()) {
			return true
		}
	}
	return false
}

// Install downloads family's archive from the release, extracts it and
// copies every font file into Dir. It returns the installed file names.
func (f *Fonts) Install(ctx context.Context, family string) ([]string, error) {
	rel, err := f.release(ctx)
	if err != nil {
		return nil, err
	}
	url, name, ok := pickFontAsset(rel, family)
	if !ok {
		return nil, fmt.Errorf("release %s has no archive for %s", rel.TagName, family)
	}

	tmp, err := os.MkdirTemp("", "loadstar-font-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	archive := filepath.Join(tmp, name)
	if err := f.download(ctx, url, archive); err != nil {
		return nil, err
	}
	extracted := filepath.Join(tmp, "x")
	if err := ExtractArchive(archive, extracted); err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}

	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return nil, err
	}
	var installed []string
	err = filepath.WalkDir(extracted, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isFontFile(d.Name()) {
			return err
		}
		if err := copyFile(p, filepath.Join(f.Dir, d.Name()), 0o644); err != nil {
			return err
		}
		installed = append(installed, d.Name())
		return nil
	})
	if err != nil {
		return installed, err
	}
	if len(installed) == 0 {
		return nil, fmt.Errorf("%s contains no font files", name)
	}
	logger.Debug("[DEBUG] Installed %d font files from %s %s\n", len(installed), rel.TagName, name)
	return installed, nil
}

func (f *Fonts) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *Fonts) release(ctx context.Context) (githubRelease, error) {
	url := f.ReleaseURL
	if url == "" {
		url = DefaultFontRelease
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return githubRelease{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := f.client().Do(req)
	if err != nil {
		return githubRelease{}, fmt.Errorf("fetch font release: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return githubRelease{}, fmt.Errorf("fetch font release: HTTP status %d", resp.StatusCode)
	}
	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return githubRelease{}, fmt.Errorf("decode font release: %w", err)
	}
	return rel, nil
}

// pickFontAsset prefers the smaller .tar.xz archive over .zip.
func pickFontAsset(rel githubRelease, family string) (url, name string, ok bool) {
	for _, ext := range []string{".tar.xz", ".zip"} {
		for _, a := range rel.Assets {
			if a.Name == family+ext {
				return a.BrowserDownloadURL, a.Name, true
			}
		}
	}
	return "", "", false
}

func (f *Fonts) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", path.Base(url), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: HTTP status %d", path.Base(url), resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("download %s: %w", path.Base(url), err)
	}
	return out.Close()
}

func isFontFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range fontExts {
		if ext == e {
			return true
		}
	}
	return false
}
