package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kbukum/samuelizer/errors"
)

// Kind separates containers that need audio extraction from plain audio.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Format is the result of a successful Detect.
type Format struct {
	Ext  string
	Kind Kind
	MIME string
}

// IsVideo reports whether audio must be extracted before transcription.
func (f Format) IsVideo() bool { return f.Kind == KindVideo }

type container struct {
	kind Kind
	// mimes lists the sniffed types accepted for the extension. A match
	// anywhere in the detected type's parent chain is accepted.
	mimes []string
}

var isoBMFF = []string{"video/mp4", "audio/mp4", "audio/x-m4a", "video/quicktime", "video/x-m4v", "video/3gpp", "video/3gpp2"}

var containers = map[string]container{
	".mp4":  {KindVideo, isoBMFF},
	".m4a":  {KindAudio, isoBMFF},
	".mov":  {KindVideo, isoBMFF},
	".avi":  {KindVideo, []string{"video/x-msvideo"}},
	".mkv":  {KindVideo, []string{"video/x-matroska", "video/webm"}},
	".webm": {KindVideo, []string{"video/webm", "video/x-matroska"}},
	".wmv":  {KindVideo, []string{"video/x-ms-asf", "video/x-ms-wmv"}},
	".flv":  {KindVideo, []string{"video/x-flv"}},
	".wav":  {KindAudio, []string{"audio/wav"}},
	".aac":  {KindAudio, []string{"audio/aac"}},
	".mp3":  {KindAudio, []string{"audio/mpeg"}},
	".ogg":  {KindAudio, []string{"application/ogg"}},
}

// SupportedExtensions returns the accepted extensions, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(containers))
	for ext := range containers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupported reports whether path has a supported extension. It does not
// read the file.
func IsSupported(path string) bool {
	_, ok := containers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Detect validates path by extension and by magic bytes. A missing or
// unreadable file is InputUnreadable; anything else that is not a supported
// container is UnsupportedFormat.
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := containers[ext]
	if !ok {
		return Format{}, errors.UnsupportedFormat(path,
			fmt.Sprintf("extension %q is not one of %s", ext, strings.Join(SupportedExtensions(), " ")))
	}

	info, err := os.Stat(path)
	if err != nil {
		return Format{}, errors.InputUnreadable(path, err)
	}
	if info.IsDir() {
		return Format{}, errors.UnsupportedFormat(path, "is a directory")
	}
	if info.Size() == 0 {
		return Format{}, errors.UnsupportedFormat(path, "file is empty")
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Format{}, errors.InputUnreadable(path, err)
	}
	for m := mtype; m != nil; m = m.Parent() {
		for _, want := range c.mimes {
			if m.Is(want) {
				return Format{Ext: ext, Kind: c.kind, MIME: mtype.String()}, nil
			}
		}
	}
	return Format{}, errors.UnsupportedFormat(path,
		fmt.Sprintf("content looks like %s, not a %s container", mtype.String(), ext))
}
