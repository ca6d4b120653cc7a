// Package framestore persists rendered frames, screenshots and animation
// outputs under a single base directory:
//
//	<base>/frames/frame<N>.png   sweep frames, zero-based
//	<base>/frames/session.json   metadata for the last sweep
//	<base>/images/image<ts>.png  single-frame captures
//	<base>/media/media<N>.gif    encoded animations
//	<base>/.log                  next media number
package framestore

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

const (
	framesDir = "frames"
	imagesDir = "images"
	mediaDir  = "media"
)

var framePattern = regexp.MustCompile(`^frame(\d+)\.png$`)

// Record identifies one persisted sweep frame.
type Record struct {
	Index int
	Path  string
}

type Store struct {
	baseDir string
	enc     png.Encoder
}

func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		enc:     png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

func (s *Store) BaseDir() string { return s.baseDir }

func (s *Store) FramesDir() string { return filepath.Join(s.baseDir, framesDir) }

// Init creates the directory layout. It is safe to call repeatedly.
func (s *Store) Init() error {
	for _, dir := range []string{framesDir, imagesDir, mediaDir} {
		path := filepath.Join(s.baseDir, dir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return wrap("init", path, err)
		}
	}
	return nil
}

// Save writes img as the frame with the given index. The file appears
// under its final name only once fully written.
func (s *Store) Save(index int, img image.Image) (Record, error) {
	if index < 0 {
		return Record{}, wrap("save", s.FramesDir(), fmt.Errorf("negative frame index %d", index))
	}
	path := filepath.Join(s.FramesDir(), "frame"+strconv.Itoa(index)+".png")
	if err := s.writePNG(path, img); err != nil {
		return Record{}, wrap("save", path, err)
	}
	return Record{Index: index, Path: path}, nil
}

// List returns the persisted frames ordered by index. A missing frames
// directory yields an empty list.
func (s *Store) List() ([]Record, error) {
	dir := s.FramesDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, wrap("list", dir, err)
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := framePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		records = append(records, Record{Index: idx, Path: filepath.Join(dir, entry.Name())})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Index < records[j].Index })
	return records, nil
}

// Clear deletes every sweep frame and the session metadata. Other files in
// the frames directory are left alone.
func (s *Store) Clear() error {
	records, err := s.List()
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := os.Remove(r.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return wrap("clear", r.Path, err)
		}
	}
	session := s.sessionPath()
	if err := os.Remove(session); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return wrap("clear", session, err)
	}
	return nil
}

func (s *Store) Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap("load", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, wrap("load", path, err)
	}
	return img, nil
}

// Discard removes a file previously produced by the store, such as a
// partially written animation.
func (s *Store) Discard(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return wrap("discard", path, err)
	}
	return nil
}

func (s *Store) writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := s.enc.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
