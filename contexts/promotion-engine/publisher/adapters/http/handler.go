// Package httpadapter is the publish endpoint's handler.
package httpadapter

import (
	"context"

	"promoengine/contexts/promotion-engine/publisher/application"
	transporthttp "promoengine/contexts/promotion-engine/publisher/transport/http"
)

type Handler struct {
	Publisher application.Publisher
}

func (h Handler) PublishHandler(ctx context.Context, promotionID, countryISO string) (transporthttp.PublishResponse, error) {
	result, err := h.Publisher.Publish(ctx, promotionID, countryISO)
	if err != nil {
		return transporthttp.PublishResponse{}, err
	}
	return transporthttp.NewPublishResponse(result), nil
}
