// Package http holds the wire DTOs for the publish endpoint (spec.md
// §6 endpoint 2).
package http

import "promoengine/contexts/promotion-engine/publisher/application"

// PublishResponse is "{promotionId, countryIso, version}".
type PublishResponse struct {
	PromotionID string `json:"promotionId"`
	CountryISO  string `json:"countryIso"`
	Version     int    `json:"version"`
}

func NewPublishResponse(result application.PublishResult) PublishResponse {
	return PublishResponse{
		PromotionID: result.PromotionID,
		CountryISO:  result.CountryISO,
		Version:     result.Version,
	}
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
