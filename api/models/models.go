// Package models tracks all api models for request and responses
package models

import (
	"github.com/aouyang1/albumflow/album"
)

type CreateAlbumRequest struct {
	URL string `json:"url"`
}

type SessionResponse struct {
	ID              string      `json:"id"`
	Index           int         `json:"index"`
	Count           int         `json:"count"`
	Playing         bool        `json:"playing"`
	Transition      string      `json:"transition"`
	ControlsVisible bool        `json:"controls_visible"`
	Photo           album.Photo `json:"photo"`
	// ImageURL is the server relative path serving the current photo through the image cache.
	ImageURL string           `json:"image_url"`
	Settings SettingsResponse `json:"settings"`
}

type SettingsResponse struct {
	IntervalSeconds float64 `json:"interval_seconds"`
	Transition      string  `json:"transition"`
	FitMode         string  `json:"fit_mode"`
}

// UpdateSessionSettingsRequest is a partial update; nil fields are left unchanged.
type UpdateSessionSettingsRequest struct {
	// IntervalSeconds has a floor so a tiny value cannot spin the advance timer.
	IntervalSeconds *float64 `json:"interval_seconds" binding:"omitempty,gte=0.5"`
	Transition      *string  `json:"transition" binding:"omitempty,oneof=random fade slide zoom flip blur"`
	FitMode         *string  `json:"fit_mode" binding:"omitempty,oneof=cover contain"`
}

type UpdateSettingsRequest struct {
	IntervalSeconds int    `json:"interval_seconds" binding:"required,gt=0"`
	Transition      string `json:"transition" binding:"required,oneof=random fade slide zoom flip blur"`
	FitMode         string `json:"fit_mode" binding:"required,oneof=cover contain"`
}

type PhotoListResponse struct {
	Photos []album.Photo `json:"photos"`
	Total  int           `json:"total"`
}

type EventMessage struct {
	Type    string          `json:"type"`
	Session SessionResponse `json:"session"`
}

// CommandMessage is sent by websocket clients. Action is one of toggle, next, prev, pointer, click.
type CommandMessage struct {
	Action string `json:"action"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
