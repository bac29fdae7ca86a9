package game

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"github.com/iburimskiy/tunnel-visualization/internal/config"
)

// minSeekInterval debounces seeks while the progress bar is dragged.
const minSeekInterval = 50 * time.Millisecond

// soundtrack plays one audio file and turns its loudness into the tunnel pulse.
type soundtrack struct {
	currentFile *os.File
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	tap         *visualTap

	duration time.Duration
	position time.Duration
	lastSeek time.Time

	level    float64
	paused   bool
	initDone bool
	finished atomic.Bool
}

func (s *soundtrack) loaded() bool {
	return s.streamer != nil
}

// decode opens path with the decoder matching its extension.
func decode(path string) (*os.File, beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, beep.Format{}, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		_ = f.Close()
		return nil, nil, beep.Format{}, errors.New("unsupported file type: " + ext)
	}
	if err != nil {
		_ = f.Close()
		return nil, nil, beep.Format{}, err
	}
	return f, streamer, format, nil
}

// open replaces whatever is playing with path.
func (s *soundtrack) open(path string) error {
	f, streamer, format, err := decode(path)
	if err != nil {
		return err
	}

	bufferSize := format.SampleRate.N(time.Second / 20)
	switch {
	case !s.initDone:
		if err := speaker.Init(format.SampleRate, bufferSize); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			return err
		}
		s.initDone = true
	case s.format.SampleRate != format.SampleRate:
		speaker.Clear()
		if err := speaker.Init(format.SampleRate, bufferSize); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			return err
		}
	default:
		speaker.Clear()
	}
	s.release()

	t := newVisualTap(streamer, config.VisualRingSize)
	ctrl := &beep.Ctrl{Streamer: t}

	s.currentFile = f
	s.streamer = streamer
	s.format = format
	s.ctrl = ctrl
	s.tap = t
	s.paused = false
	s.finished.Store(false)
	s.duration = format.SampleRate.D(streamer.Len())
	s.position = 0

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		s.finished.Store(true)
	})))
	log.Printf("soundtrack: playing %s (%s)", filepath.Base(path), formatDuration(s.duration))
	return nil
}

// release closes the current file without touching the speaker.
func (s *soundtrack) release() {
	if s.streamer != nil {
		_ = s.streamer.Close()
		s.streamer = nil
	}
	if s.currentFile != nil {
		_ = s.currentFile.Close()
		s.currentFile = nil
	}
	s.ctrl = nil
	s.tap = nil
	s.duration = 0
	s.position = 0
}

func (s *soundtrack) close() {
	if s.initDone {
		speaker.Clear()
	}
	s.release()
}

func (s *soundtrack) togglePause() {
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.paused = !s.paused
	s.ctrl.Paused = s.paused
	speaker.Unlock()
}

// seek jumps to fraction pos of the track.
func (s *soundtrack) seek(pos float64) error {
	if s.streamer == nil || time.Since(s.lastSeek) < minSeekInterval {
		return nil
	}
	n := int(clamp01(pos) * float64(s.streamer.Len()))
	n = min(n, s.streamer.Len()-1)
	n = max(n, 0)

	speaker.Lock()
	err := s.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		return err
	}
	s.position = s.format.SampleRate.D(n)
	s.lastSeek = time.Now()
	return nil
}

// update advances the play clock by delta seconds and returns the smoothed
// level in [0,1].
func (s *soundtrack) update(delta float64) float64 {
	if s.finished.Load() {
		s.release()
		s.finished.Store(false)
	}
	if s.tap == nil {
		s.level = smoothLevel(s.level, 0, config.SmoothingFactor)
		return s.level
	}
	if !s.paused {
		s.position = min(s.position+time.Duration(delta*float64(time.Second)), s.duration)
	}
	s.level = smoothLevel(s.level, s.tap.level(config.LevelWindow), config.SmoothingFactor)
	return clamp01(s.level)
}

// progress is the played fraction of the track.
func (s *soundtrack) progress() float64 {
	if s.duration <= 0 {
		return 0
	}
	return float64(s.position) / float64(s.duration)
}
