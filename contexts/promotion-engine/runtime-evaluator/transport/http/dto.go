// Package http holds the wire DTOs for the evaluate endpoint (spec.md
// §6 endpoint 3).
package http

import (
	"time"

	"promoengine/contexts/promotion-engine/runtime-evaluator/domain"
)

// EvaluateRequest is `{contactId, countryIso, asOfUtc, ctx{...}}` per
// spec.md §6. ctx carries arbitrary event fields plus eventId.
type EvaluateRequest struct {
	ContactID  string         `json:"contactId"`
	CountryISO string         `json:"countryIso"`
	AsOfUtc    time.Time      `json:"asOfUtc"`
	Ctx        map[string]any `json:"ctx"`
}

func (r EvaluateRequest) ToDomain() domain.EvaluationRequest {
	fields := r.Ctx
	eventID, _ := fields["eventId"].(string)
	return domain.EvaluationRequest{
		ContactID:  r.ContactID,
		CountryISO: r.CountryISO,
		AsOfUtc:    r.AsOfUtc,
		Event:      domain.EventContext{EventID: eventID, Fields: fields},
	}
}

// EvaluateResultDTO is one fired group in the response array.
type EvaluateResultDTO struct {
	PromotionID       string   `json:"promotionId"`
	Version           int      `json:"version"`
	CountryISO        string   `json:"countryIso"`
	AwardedTier       int      `json:"awardedTier"`
	ExpressionGroupID string   `json:"expressionGroupId"`
	RewardIDs         []string `json:"rewardIds"`
}

func NewEvaluateResponse(results []domain.EvaluateResult) []EvaluateResultDTO {
	out := make([]EvaluateResultDTO, 0, len(results))
	for _, r := range results {
		out = append(out, EvaluateResultDTO{
			PromotionID:       r.PromotionID,
			Version:           r.Version,
			CountryISO:        r.CountryISO,
			AwardedTier:       r.AwardedTier,
			ExpressionGroupID: r.ExpressionGroupID,
			RewardIDs:         r.RewardIDs,
		})
	}
	return out
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
