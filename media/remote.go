package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/httpclient"
)

var driveFileID = regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`)

// DirectURL rewrites a Google Drive share link to its direct download
// form. Other URLs are returned unchanged.
func DirectURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.InvalidInput("url", fmt.Sprintf("not an http(s) URL: %q", raw))
	}
	if u.Host != "drive.google.com" {
		return raw, nil
	}
	id := u.Query().Get("id")
	if m := driveFileID.FindStringSubmatch(u.Path); m != nil {
		id = m[1]
	}
	if id == "" {
		return "", errors.InvalidInput("url", "Google Drive link has no file id")
	}
	return "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(id), nil
}

// Fetch downloads a remote recording into dir and returns its path. The
// file extension follows the downloaded content, so Detect sees the real
// container.
func Fetch(ctx context.Context, client *httpclient.Client, raw, dir string) (string, error) {
	target, err := DirectURL(raw)
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, "download-*.part")
	if err != nil {
		return "", errors.Internal(err)
	}
	tmp := f.Name()
	_, err = client.Download(ctx, target, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", httpclient.ToAppError(remoteHost(target), err)
	}

	ext := ""
	if mt, derr := mimetype.DetectFile(tmp); derr == nil {
		ext = mt.Extension()
	}
	if ext == "" {
		if u, perr := url.Parse(target); perr == nil {
			ext = path.Ext(u.Path)
		}
	}
	final := strings.TrimSuffix(tmp, ".part") + ext
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Internal(err)
	}
	return filepath.Clean(final), nil
}

func remoteHost(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return "download"
}
