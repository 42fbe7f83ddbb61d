package media

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/samuelizer/errors"
	"github.com/kbukum/samuelizer/httpclient"
)

func TestDirectURL(t *testing.T) {
	tests := []struct {
		in, want string
		bad      bool
	}{
		{in: "https://drive.google.com/file/d/1AbC_d-9/view?usp=sharing", want: "https://drive.google.com/uc?export=download&id=1AbC_d-9"},
		{in: "https://drive.google.com/open?id=XYZ", want: "https://drive.google.com/uc?export=download&id=XYZ"},
		{in: "https://example.com/call.mp3", want: "https://example.com/call.mp3"},
		{in: "https://drive.google.com/drive/my-drive", bad: true},
		{in: "ftp://example.com/call.mp3", bad: true},
		{in: "call.mp3", bad: true},
	}
	for _, tt := range tests {
		got, err := DirectURL(tt.in)
		if tt.bad {
			if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("%s: expected invalid input, got %q, %v", tt.in, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%s: got %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestFetch_NamesFileByContent(t *testing.T) {
	mp3 := append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64}, 64)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/share/recording" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(mp3)
	}))
	defer srv.Close()
	client, err := httpclient.New(httpclient.Config{})
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	path, err := Fetch(context.Background(), client, srv.URL+"/share/recording", dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(path) != ".mp3" || filepath.Dir(path) != dir {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(data, mp3) {
		t.Errorf("downloaded %d bytes, err %v", len(data), err)
	}

	_, err = Fetch(context.Background(), client, srv.URL+"/missing.mp4", dir)
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	left, _ := filepath.Glob(filepath.Join(dir, "*.part"))
	if len(left) != 0 {
		t.Errorf("partial files left behind: %v", left)
	}
}
