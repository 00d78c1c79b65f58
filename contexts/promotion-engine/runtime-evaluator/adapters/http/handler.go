// Package httpadapter is the evaluate endpoint's handler.
package httpadapter

import (
	"context"

	"promoengine/contexts/promotion-engine/runtime-evaluator/application"
	transporthttp "promoengine/contexts/promotion-engine/runtime-evaluator/transport/http"
)

type Handler struct {
	Evaluator application.Evaluator
}

func (h Handler) EvaluateHandler(ctx context.Context, req transporthttp.EvaluateRequest) ([]transporthttp.EvaluateResultDTO, error) {
	results, err := h.Evaluator.Evaluate(ctx, req.ToDomain())
	if err != nil {
		return nil, err
	}
	return transporthttp.NewEvaluateResponse(results), nil
}
