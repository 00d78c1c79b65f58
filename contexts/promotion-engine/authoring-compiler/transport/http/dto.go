// Package http holds the wire DTOs for the draft upsert endpoint
// (spec.md §6 endpoint 1). Framework choice beyond the teacher's
// stdlib ServeMux is explicitly out of scope (spec.md §1); this
// package only shapes JSON, it never touches net/http.
package http

import (
	"time"

	"promoengine/contexts/promotion-engine/authoring-compiler/application"
	"promoengine/contexts/promotion-engine/authoring-compiler/domain"
)

type NodeDTO struct {
	BoolOp      string    `json:"boolOp,omitempty"`
	Order       int       `json:"order"`
	Children    []NodeDTO `json:"children,omitempty"`
	AttributeID string    `json:"attributeId,omitempty"`
	OperatorID  string    `json:"operatorId,omitempty"`
	ValueRaw    string    `json:"valueRaw,omitempty"`
}

func (d NodeDTO) ToDomain() domain.Node {
	if d.BoolOp != "" {
		children := make([]domain.Node, 0, len(d.Children))
		for _, child := range d.Children {
			children = append(children, child.ToDomain())
		}
		return domain.Group{BoolOp: domain.BoolOp(d.BoolOp), Children: children, Order: d.Order}
	}
	return domain.Clause{AttributeID: d.AttributeID, OperatorID: d.OperatorID, ValueRaw: d.ValueRaw, Order: d.Order}
}

type GroupDTO struct {
	Order      int      `json:"order"`
	RewardIDs  []string `json:"rewardIds,omitempty"`
	Expression *NodeDTO `json:"expression"`
}

type TierDTO struct {
	TierLevel        int        `json:"tierLevel"`
	Order            int        `json:"order"`
	TierCooldownDays *int       `json:"tierCooldownDays,omitempty"`
	Groups           []GroupDTO `json:"groups"`
}

type WindowDTO struct {
	ValidFromUtc *time.Time `json:"validFromUtc"`
	ValidToUtc   *time.Time `json:"validToUtc"`
}

type PoliciesDTO struct {
	GlobalCooldownDays int  `json:"globalCooldownDays"`
	ExclusivePerEvent  bool `json:"exclusivePerEvent"`
}

// DraftRequest is the draft-upsert endpoint's request body.
type DraftRequest struct {
	PromotionID     string      `json:"promotionId,omitempty"`
	Name            string      `json:"name"`
	Timezone        string      `json:"timezone"`
	CountryISO      string      `json:"countryIso"`
	Policies        PoliciesDTO `json:"policies"`
	Window          WindowDTO   `json:"window"`
	Segments        []string    `json:"segments,omitempty"`
	GlobalRewardIDs []string    `json:"globalRewardIds,omitempty"`
	Tiers           []TierDTO   `json:"tiers"`
}

func (r DraftRequest) ToCommand() application.DraftUpsertCommand {
	tiers := make([]application.TierCommand, 0, len(r.Tiers))
	for _, tier := range r.Tiers {
		groups := make([]application.GroupCommand, 0, len(tier.Groups))
		for _, group := range tier.Groups {
			var root domain.Node
			if group.Expression != nil {
				root = group.Expression.ToDomain()
			}
			groups = append(groups, application.GroupCommand{Order: group.Order, RewardIDs: group.RewardIDs, Root: root})
		}
		tiers = append(tiers, application.TierCommand{
			TierLevel: tier.TierLevel, Order: tier.Order, CooldownDays: tier.TierCooldownDays, Groups: groups,
		})
	}
	return application.DraftUpsertCommand{
		PromotionID:        r.PromotionID,
		Name:               r.Name,
		Timezone:           r.Timezone,
		CountryISO:         r.CountryISO,
		GlobalCooldownDays: r.Policies.GlobalCooldownDays,
		ExclusivePerEvent:  r.Policies.ExclusivePerEvent,
		ValidFrom:          r.Window.ValidFromUtc,
		ValidTo:            r.Window.ValidToUtc,
		Segments:           r.Segments,
		GlobalRewardIDs:    r.GlobalRewardIDs,
		Tiers:              tiers,
	}
}

// DraftResponse is the draft-upsert endpoint's success body (spec.md
// §6: "{promotionId, version, countryIso, workflowName, warnings[]}").
type DraftResponse struct {
	PromotionID  string   `json:"promotionId"`
	Version      int      `json:"version"`
	CountryISO   string   `json:"countryIso"`
	WorkflowName string   `json:"workflowName"`
	Warnings     []string `json:"warnings"`
}

func NewDraftResponse(result application.DraftUpsertResult) DraftResponse {
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return DraftResponse{
		PromotionID:  result.PromotionID,
		Version:      result.Version,
		CountryISO:   result.CountryISO,
		WorkflowName: result.WorkflowName,
		Warnings:     warnings,
	}
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
