package api

import (
	"time"

	"github.com/aouyang1/albumflow/api/models"
	"github.com/aouyang1/albumflow/api/web/templates"
	"github.com/aouyang1/albumflow/slideshow"
	"github.com/aouyang1/albumflow/store"
)

func configFromSettings(s *store.AppSettings) (slideshow.Config, error) {
	cfg := slideshow.Config{
		Interval:   time.Duration(s.IntervalSeconds) * time.Second,
		Transition: slideshow.TransitionType(s.Transition),
		FitMode:    slideshow.FitMode(s.FitMode),
	}
	return cfg, cfg.Validate()
}

// sessionUpdates turns a partial settings request into one update per present field.
func sessionUpdates(req models.UpdateSessionSettingsRequest) []slideshow.Update {
	var updates []slideshow.Update
	if req.IntervalSeconds != nil {
		updates = append(updates, slideshow.IntervalUpdate{
			Interval: time.Duration(*req.IntervalSeconds * float64(time.Second)),
		})
	}
	if req.Transition != nil {
		updates = append(updates, slideshow.TransitionUpdate{Transition: slideshow.TransitionType(*req.Transition)})
	}
	if req.FitMode != nil {
		updates = append(updates, slideshow.FitModeUpdate{FitMode: slideshow.FitMode(*req.FitMode)})
	}
	return updates
}

func sessionResponse(s *slideshow.Session, state slideshow.State, cfg slideshow.Config, controlsVisible bool) models.SessionResponse {
	photo := s.Player.PhotoAt(state.Index)
	return models.SessionResponse{
		ID:              s.ID,
		Index:           state.Index,
		Count:           s.Player.Len(),
		Playing:         state.Playing,
		Transition:      string(state.Transition),
		ControlsVisible: controlsVisible,
		Photo:           photo,
		ImageURL:        templates.ImageURL(s.ID, photo.ID),
		Settings: models.SettingsResponse{
			IntervalSeconds: cfg.Interval.Seconds(),
			Transition:      string(cfg.Transition),
			FitMode:         string(cfg.FitMode),
		},
	}
}

func snapshotResponse(s *slideshow.Session) models.SessionResponse {
	snap := s.Snapshot()
	return sessionResponse(s, snap.State, snap.Config, snap.ControlsVisible)
}
