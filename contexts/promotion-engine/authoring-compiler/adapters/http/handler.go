// Package httpadapter is the draft-upsert endpoint's handler, grounded
// on the teacher's adapters/http Handler pattern: a thin struct wrapping
// the use case, translating transport DTOs to/from the application layer.
package httpadapter

import (
	"context"

	"promoengine/contexts/promotion-engine/authoring-compiler/application"
	transporthttp "promoengine/contexts/promotion-engine/authoring-compiler/transport/http"
)

type Handler struct {
	UseCase application.DraftUpsertUseCase
}

func (h Handler) DraftUpsertHandler(ctx context.Context, req transporthttp.DraftRequest) (transporthttp.DraftResponse, error) {
	result, err := h.UseCase.Execute(ctx, req.ToCommand())
	if err != nil {
		return transporthttp.DraftResponse{}, err
	}
	return transporthttp.NewDraftResponse(result), nil
}
