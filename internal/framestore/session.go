package framestore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const sessionFile = "session.json"

// Session describes the sweep that produced the current frame set.
type Session struct {
	TargetZoom float64   `json:"target_zoom"`
	MinZoom    float64   `json:"min_zoom"`
	ZoomFactor float64   `json:"zoom_factor"`
	CenterRe   float64   `json:"center_re"`
	CenterIm   float64   `json:"center_im"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Frames     int       `json:"frames"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *Store) sessionPath() string {
	return filepath.Join(s.FramesDir(), sessionFile)
}

func (s *Store) SaveSession(meta Session) error {
	path := s.sessionPath()
	if meta.Timestamp.IsZero() {
		meta.Timestamp = now()
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return wrap("save session", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return wrap("save session", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return wrap("save session", path, err)
	}
	return nil
}

// LoadSession returns ErrNoFrames when no sweep has been recorded.
func (s *Store) LoadSession() (*Session, error) {
	path := s.sessionPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoFrames
		}
		return nil, wrap("load session", path, err)
	}

	var meta Session
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, wrap("load session", path, err)
	}
	return &meta, nil
}
