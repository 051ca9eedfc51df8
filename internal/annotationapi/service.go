package annotationapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/codec"
	"github.com/osu-uwrt/data-collection-webapp/internal/collab"
	"github.com/osu-uwrt/data-collection-webapp/internal/interpolate"
	"github.com/osu-uwrt/data-collection-webapp/internal/store"
	"github.com/osu-uwrt/data-collection-webapp/internal/video"
)

var (
	ErrRoomLive = errors.New("video is being edited")
	ErrInvalid  = errors.New("invalid annotation file")
)

// VideoInfo looks up the frame size and count of a video.
type VideoInfo interface {
	Info(videoID string) (video.Info, error)
}

// LiveRooms is the view of the collaboration hub the service needs.
type LiveRooms interface {
	Live(videoID string) bool
	Flush(videoID string) error
}

// Service reads and writes annotation files and converts them between their
// persisted form and canvas coordinates.
type Service struct {
	store     store.Store
	videos    VideoInfo
	maxWidth  float64
	maxHeight float64

	rooms LiveRooms

	mu      sync.Mutex
	engines map[string]*interpolate.Engine
	writing map[string]*sync.Mutex
}

func NewService(st store.Store, videos VideoInfo, maxWidth, maxHeight float64) *Service {
	return &Service{
		store:     st,
		videos:    videos,
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		engines:   make(map[string]*interpolate.Engine),
		writing:   make(map[string]*sync.Mutex),
	}
}

// History lists the saved versions of a file when the store keeps them.
func (s *Service) History(ctx context.Context, videoID string, kind annotation.Kind) ([]store.Version, error) {
	v, ok := s.store.(store.Versioned)
	if !ok {
		return nil, store.ErrNoHistory
	}
	if _, err := s.videos.Info(videoID); err != nil {
		return nil, err
	}
	return v.History(ctx, videoID, kind)
}

// AttachRooms makes the service aware of live editing rooms. Reads flush a
// live room first and writes to a live video are refused.
func (s *Service) AttachRooms(rooms LiveRooms) {
	s.rooms = rooms
}

func (s *Service) live(videoID string) bool {
	return s.rooms != nil && s.rooms.Live(videoID)
}

// lockVideo holds off room loads of a video while a file write checks that
// no room is live and saves.
func (s *Service) lockVideo(videoID string) func() {
	s.mu.Lock()
	l, ok := s.writing[videoID]
	if !ok {
		l = new(sync.Mutex)
		s.writing[videoID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// engine returns the interpolation engine of one video layer, so two passes
// over the same file never overlap.
func (s *Service) engine(videoID string, kind annotation.Kind) *interpolate.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := videoID + "/" + string(kind)
	e, ok := s.engines[key]
	if !ok {
		e = interpolate.New()
		s.engines[key] = e
	}
	return e
}

// Transform returns the canvas mapping of a video at the configured maximum
// canvas size.
func (s *Service) Transform(videoID string) (codec.Transform, video.Info, error) {
	info, err := s.videos.Info(videoID)
	if err != nil {
		return codec.Transform{}, video.Info{}, err
	}
	w, h := float64(info.Width), float64(info.Height)
	t, err := codec.NewTransform(w, h, codec.DisplayScale(w, h, s.maxWidth, s.maxHeight))
	if err != nil {
		return codec.Transform{}, video.Info{}, fmt.Errorf("video %s: %w", videoID, err)
	}
	return t, info, nil
}

// loadLayer returns the stored layer, or an empty one if nothing was saved.
func (s *Service) loadLayer(ctx context.Context, videoID string, kind annotation.Kind, t codec.Transform) (*annotation.Layer, error) {
	data, err := s.store.Load(ctx, videoID, kind)
	if errors.Is(err, store.ErrNotFound) {
		return annotation.NewLayer(kind), nil
	}
	if err != nil {
		return nil, err
	}
	layer, err := codec.Unmarshal(kind, data, t)
	if err != nil {
		return nil, fmt.Errorf("stored %s file of %s: %w", kind, videoID, err)
	}
	return layer, nil
}

// Get returns the persisted JSON of one layer. A video with no saved file
// yields an empty one.
func (s *Service) Get(ctx context.Context, videoID string, kind annotation.Kind) ([]byte, error) {
	if s.live(videoID) {
		if err := s.rooms.Flush(videoID); err != nil {
			return nil, fmt.Errorf("flush live room: %w", err)
		}
	}
	layer, err := s.loadLayer(ctx, videoID, kind, codec.Identity())
	if err != nil {
		return nil, err
	}
	return codec.Marshal(layer, codec.Identity())
}

// Put replaces one layer's file after checking that it decodes.
func (s *Service) Put(ctx context.Context, videoID string, kind annotation.Kind, data []byte) error {
	defer s.lockVideo(videoID)()
	if s.live(videoID) {
		return ErrRoomLive
	}
	layer, err := codec.Unmarshal(kind, data, codec.Identity())
	if err != nil {
		if errors.Is(err, codec.ErrUnknownKind) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	out, err := codec.Marshal(layer, codec.Identity())
	if err != nil {
		return err
	}
	return s.store.Save(ctx, videoID, kind, out)
}

// Interpolate runs an interpolation pass over a saved layer and stores the
// result. Interpolation is linear, so it runs on normalised coordinates.
func (s *Service) Interpolate(ctx context.Context, videoID string, kind annotation.Kind) (interpolate.Report, error) {
	defer s.lockVideo(videoID)()
	if s.live(videoID) {
		return interpolate.Report{}, ErrRoomLive
	}
	if _, err := codec.ParseKind(string(kind)); err != nil {
		return interpolate.Report{}, err
	}
	layer, err := s.loadLayer(ctx, videoID, kind, codec.Identity())
	if err != nil {
		return interpolate.Report{}, err
	}
	report, err := s.engine(videoID, kind).Run(layer)
	if err != nil {
		return interpolate.Report{}, err
	}
	out, err := codec.Marshal(layer, codec.Identity())
	if err != nil {
		return interpolate.Report{}, err
	}
	if err := s.store.Save(ctx, videoID, kind, out); err != nil {
		return interpolate.Report{}, err
	}
	return report, nil
}

// Files returns both persisted files of a video in normalised form. The
// video must exist.
func (s *Service) Files(ctx context.Context, videoID string) (codec.BoxesFile, codec.PolygonsFile, error) {
	if _, err := s.videos.Info(videoID); err != nil {
		return codec.BoxesFile{}, codec.PolygonsFile{}, err
	}
	var boxes codec.BoxesFile
	var polygons codec.PolygonsFile
	for kind, dst := range map[annotation.Kind]any{annotation.KindBox: &boxes, annotation.KindPolygon: &polygons} {
		data, err := s.Get(ctx, videoID, kind)
		if err != nil {
			return codec.BoxesFile{}, codec.PolygonsFile{}, err
		}
		if err := json.Unmarshal(data, dst); err != nil {
			return codec.BoxesFile{}, codec.PolygonsFile{}, fmt.Errorf("decode %s file: %w", kind, err)
		}
	}
	return boxes, polygons, nil
}

// LoadWorkspace builds the editing workspace of a video in canvas
// coordinates. It is the collaboration hub's loader, called once the hub
// reports the video live, so it waits out any write already under way.
func (s *Service) LoadWorkspace(videoID string) (*collab.Workspace, error) {
	defer s.lockVideo(videoID)()
	ctx := context.Background()
	t, info, err := s.Transform(videoID)
	if err != nil {
		return nil, err
	}
	boxes, err := s.loadLayer(ctx, videoID, annotation.KindBox, t)
	if err != nil {
		return nil, err
	}
	polygons, err := s.loadLayer(ctx, videoID, annotation.KindPolygon, t)
	if err != nil {
		return nil, err
	}
	scale := codec.DisplayScale(float64(info.Width), float64(info.Height), s.maxWidth, s.maxHeight)
	return &collab.Workspace{
		Set:          &annotation.Set{Boxes: boxes, Polygons: polygons},
		TotalFrames:  info.TotalFrames,
		CanvasWidth:  float64(info.Width) * scale,
		CanvasHeight: float64(info.Height) * scale,
	}, nil
}

// SaveSet persists both layers of a set given in canvas coordinates. It is
// the collaboration hub's saver.
func (s *Service) SaveSet(videoID string, set *annotation.Set) error {
	ctx := context.Background()
	t, _, err := s.Transform(videoID)
	if err != nil {
		return err
	}
	for _, layer := range []*annotation.Layer{set.Boxes, set.Polygons} {
		data, err := codec.Marshal(layer, t)
		if err != nil {
			return err
		}
		if err := s.store.Save(ctx, videoID, layer.Kind(), data); err != nil {
			return fmt.Errorf("save %s: %w", layer.Kind(), err)
		}
	}
	return nil
}
