// Package models defines the JSON shapes the API hands to its consumers:
// the response envelope, city suggestions for autocomplete, and found routes
// for result rendering, the CO₂ calculator and the map highlighter.
package models

import (
	"combiroute.fr/internal/clock"
)

// ResponseModel is the envelope wrapped around every API payload.
type ResponseModel struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
	Data        any    `json:"data,omitempty"`
}

// ResponseCurrentTime returns the envelope timestamp for the given clock.
func ResponseCurrentTime(c clock.Clock) int64 {
	return c.NowUnixMilli()
}

// NewListResponse wraps a successful list payload.
func NewListResponse(list any, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        200,
		CurrentTime: ResponseCurrentTime(c),
		Text:        "OK",
		Version:     2,
		Data: map[string]any{
			"list": list,
		},
	}
}
