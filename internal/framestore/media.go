package framestore

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

const (
	counterFile     = ".log"
	timestampLayout = "2006-01-02 15-04-05"
)

// now is replaced in tests.
var now = time.Now

// Capture writes a single screenshot to images/image<timestamp>.png. A
// numeric suffix is appended when a capture already exists for the same
// second.
func (s *Store) Capture(img image.Image) (string, error) {
	dir := filepath.Join(s.baseDir, imagesDir)
	stamp := now().Format(timestampLayout)

	path := filepath.Join(dir, "image"+stamp+".png")
	for n := 1; exists(path); n++ {
		path = filepath.Join(dir, fmt.Sprintf("image%s-%d.png", stamp, n))
	}

	if err := s.writePNG(path, img); err != nil {
		return "", wrap("capture", path, err)
	}
	return path, nil
}

// CreateMedia reserves the next numbered animation and returns a writer for
// it. The counter in <base>/.log is advanced before the file is created, so
// a failed encode never reuses a number. Without a counter, numbering
// continues after the highest existing animation.
//
// Data goes to a temporary file that replaces the reserved name on Close.
func (s *Store) CreateMedia() (io.WriteCloser, string, error) {
	dir := filepath.Join(s.baseDir, mediaDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", wrap("create media", dir, err)
	}

	n, err := s.nextMediaNumber()
	if err != nil {
		return nil, "", err
	}

	path := filepath.Join(dir, "media"+strconv.Itoa(n)+".gif")
	reserved, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, "", wrap("create media", path, err)
	}
	reserved.Close()

	tmp, err := os.CreateTemp(dir, ".media"+strconv.Itoa(n)+"-*.tmp")
	if err != nil {
		os.Remove(path)
		return nil, "", wrap("create media", path, err)
	}
	return &mediaFile{File: tmp, path: path}, path, nil
}

// mediaFile moves its content onto the reserved name when closed.
type mediaFile struct {
	*os.File
	path string
}

func (f *mediaFile) Close() error {
	tmp := f.File.Name()
	if err := f.File.Close(); err != nil {
		os.Remove(tmp)
		return wrap("close media", f.path, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return wrap("close media", f.path, err)
	}
	return nil
}

// ListMedia returns the encoded animations, oldest number first.
func (s *Store) ListMedia() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.baseDir, mediaDir, "media*.gif"))
	if err != nil {
		return nil, wrap("list media", s.baseDir, err)
	}
	sort.Slice(paths, func(i, j int) bool { return mediaNumber(paths[i]) < mediaNumber(paths[j]) })
	return paths, nil
}

func (s *Store) nextMediaNumber() (int, error) {
	path := filepath.Join(s.baseDir, counterFile)

	n := 0
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		n, err = strconv.Atoi(string(bytes.TrimSpace(data)))
		if err != nil || n < 0 {
			return 0, wrap("read counter", path, fmt.Errorf("malformed media counter %q", bytes.TrimSpace(data)))
		}
	case !errors.Is(err, fs.ErrNotExist):
		return 0, wrap("read counter", path, err)
	}

	existing, err := s.ListMedia()
	if err != nil {
		return 0, err
	}
	for _, p := range existing {
		n = max(n, mediaNumber(p)+1)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(n+1)+"\n"), 0644); err != nil {
		return 0, wrap("write counter", path, err)
	}
	return n, nil
}

func mediaNumber(path string) int {
	name := filepath.Base(path)
	name = name[len("media") : len(name)-len(".gif")]
	n, err := strconv.Atoi(name)
	if err != nil {
		return -1
	}
	return n
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
