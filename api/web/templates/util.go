package templates

import (
	"fmt"
	"net/url"
)

func ImageURL(sessionID, photoID string) string {
	return fmt.Sprintf("/sessions/%s/photos/%s/image", url.PathEscape(sessionID), url.PathEscape(photoID))
}

func EventsURL(sessionID string) string {
	return fmt.Sprintf("/sessions/%s/events", url.PathEscape(sessionID))
}

func ViewURL(sessionID string) string {
	return fmt.Sprintf("/sessions/%s/view", url.PathEscape(sessionID))
}

func slideClass(transition, fitMode string) string {
	return fmt.Sprintf("slide t-%s fit-%s", transition, fitMode)
}

func controlsClass(visible bool) string {
	if visible {
		return "controls"
	}
	return "controls hidden"
}

func playLabel(playing bool) string {
	if playing {
		return "Pause"
	}
	return "Play"
}

func counterText(index, count int) string {
	return fmt.Sprintf("%d / %d", index+1, count)
}

// playerState seeds the player script; it reads the element with id "state".
func playerState(v PlayerView) map[string]any {
	return map[string]any{
		"session":  v.SessionID,
		"events":   EventsURL(v.SessionID),
		"playing":  v.Playing,
		"index":    v.Index,
		"count":    v.Count,
		"fit":      v.FitMode,
		"controls": v.ControlsVisible,
	}
}
