package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"promoengine/contexts/promotion-engine/authoring-compiler/domain"
	"promoengine/contexts/promotion-engine/authoring-compiler/ports"
	providerdomain "promoengine/contexts/promotion-engine/promotion-provider/domain"
	storeentities "promoengine/contexts/promotion-engine/promotion-store/domain/entities"
)

// GroupCommand is one tier's RuleExpressionGroup as submitted by a
// draft upsert request.
type GroupCommand struct {
	Order     int
	RewardIDs []string
	Root      domain.Node
}

// TierCommand is one tier as submitted by a draft upsert request.
type TierCommand struct {
	TierLevel    int
	Order        int
	CooldownDays *int
	Groups       []GroupCommand
}

// DraftUpsertCommand is the input to the draft upsert use case
// (spec.md §4.4, §6 endpoint 1).
type DraftUpsertCommand struct {
	PromotionID        string // optional: empty means create a new promotion
	Name               string
	Timezone           string
	CountryISO         string
	GlobalCooldownDays int
	ExclusivePerEvent  bool
	ValidFrom          *time.Time
	ValidTo            *time.Time
	Segments           []string
	GlobalRewardIDs    []string
	Tiers              []TierCommand
}

// DraftUpsertResult is the use case's success response (spec.md §6:
// "{promotionId, version, countryIso, workflowName, warnings[]}").
type DraftUpsertResult struct {
	PromotionID  string
	Version      int
	CountryISO   string
	WorkflowName string
	Warnings     []string
}

// DraftUpsertUseCase validates a draft request against the catalog,
// compiles its workflow, and persists the draft version.
type DraftUpsertUseCase struct {
	Compiler    *Compiler
	Store       ports.PromotionWriter
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (uc DraftUpsertUseCase) logger() *slog.Logger {
	if uc.Logger != nil {
		return uc.Logger
	}
	return slog.Default()
}

func (uc DraftUpsertUseCase) Execute(ctx context.Context, cmd DraftUpsertCommand) (DraftUpsertResult, error) {
	name := strings.TrimSpace(cmd.Name)
	country := strings.ToUpper(strings.TrimSpace(cmd.CountryISO))
	if name == "" || len(country) != 2 || len(cmd.Tiers) == 0 {
		return DraftUpsertResult{}, domain.ErrInvalidDraftInput
	}

	now := uc.Clock.Now().UTC()
	promotionID := strings.TrimSpace(cmd.PromotionID)
	if promotionID == "" {
		newID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return DraftUpsertResult{}, err
		}
		promotionID = newID
	}

	if _, found, err := uc.Store.GetPromotion(ctx, promotionID); err != nil {
		return DraftUpsertResult{}, err
	} else if !found {
		if err := uc.Store.CreatePromotion(ctx, storeentities.Promotion{
			PromotionID:        promotionID,
			Name:               name,
			Timezone:           strings.TrimSpace(cmd.Timezone),
			GlobalCooldownDays: cmd.GlobalCooldownDays,
			CreatedAt:          now,
		}); err != nil {
			return DraftUpsertResult{}, err
		}
	}

	version, err := uc.Store.NextVersionNumber(ctx, promotionID, country)
	if err != nil {
		return DraftUpsertResult{}, err
	}

	tierInputs := make([]domain.TierInput, 0, len(cmd.Tiers))
	for _, tier := range cmd.Tiers {
		groupInputs := make([]domain.ExpressionGroupInput, 0, len(tier.Groups))
		for _, group := range tier.Groups {
			groupInputs = append(groupInputs, domain.ExpressionGroupInput{
				Order: group.Order, RewardIDs: group.RewardIDs, Root: group.Root,
			})
		}
		tierInputs = append(tierInputs, domain.TierInput{
			TierLevel: tier.TierLevel, Order: tier.Order, CooldownDays: tier.CooldownDays, Groups: groupInputs,
		})
	}

	compileResult, outcome := uc.Compiler.Compile(ctx, promotionID, country, tierInputs)
	if outcome.Kind == domain.OutcomeAbort {
		return DraftUpsertResult{}, domain.ErrCompileProducedZeroRules
	}

	window, ok := storeentities.NewValidityWindow(cmd.ValidFrom, cmd.ValidTo)
	if !ok {
		return DraftUpsertResult{}, domain.ErrInvalidDraftInput
	}

	manifest := providerdomain.Manifest{
		Policies: providerdomain.ManifestPolicies{
			GlobalCooldownDays: cmd.GlobalCooldownDays,
			ExclusivePerEvent:  cmd.ExclusivePerEvent,
			Country:            country,
		},
		Window:   providerdomain.ManifestWindow{ValidFromUtc: cmd.ValidFrom, ValidToUtc: cmd.ValidTo},
		Segments: append([]string(nil), cmd.Segments...),
	}
	manifestPayload, err := json.Marshal(manifest)
	if err != nil {
		return DraftUpsertResult{}, err
	}
	workflowPayload, err := MarshalWorkflow(compileResult.Workflow)
	if err != nil {
		return DraftUpsertResult{}, err
	}

	versionID := uuid.NewString()
	storeVersion := storeentities.PromotionVersion{
		VersionID:          versionID,
		PromotionID:        promotionID,
		Version:            version,
		CountryISO:         country,
		IsDraft:            true,
		WorkflowPayload:    workflowPayload,
		ManifestPayload:    manifestPayload,
		Timezone:           strings.TrimSpace(cmd.Timezone),
		GlobalCooldownDays: cmd.GlobalCooldownDays,
		Window:             window,
	}

	tierRows := make([]storeentities.RuleTier, 0, len(cmd.Tiers))
	tierIDByLevel := make(map[int]string, len(cmd.Tiers))
	for _, tier := range cmd.Tiers {
		tierID := uuid.NewString()
		tierIDByLevel[tier.TierLevel] = tierID
		tierRows = append(tierRows, storeentities.RuleTier{
			TierID:       tierID,
			PromotionID:  promotionID,
			VersionID:    versionID,
			TierLevel:    tier.TierLevel,
			Order:        tier.Order,
			CooldownDays: tier.CooldownDays,
		})
	}

	groupRows := make([]storeentities.RuleExpressionGroup, 0, len(compileResult.CompiledGroups))
	groupIDByTierOrder := make(map[[2]int]string, len(compileResult.CompiledGroups))
	for _, compiled := range compileResult.CompiledGroups {
		if !compiled.Included {
			continue
		}
		tierID := tierIDByLevel[compiled.TierLevel]
		groupID := uuid.NewString()
		groupIDByTierOrder[[2]int{compiled.TierLevel, compiled.Order}] = groupID

		var expression string
		for _, rule := range compileResult.Workflow.Rules {
			if rule.RuleName == domain.RuleName(compiled.TierLevel, compiled.Order) {
				expression = rule.Expression
				break
			}
		}
		groupRows = append(groupRows, storeentities.RuleExpressionGroup{
			GroupID:           groupID,
			PromotionID:       promotionID,
			TierID:            tierID,
			Order:             compiled.Order,
			ExpressionPayload: []byte(expression),
		})
	}

	if err := uc.Store.CreateDraftVersion(ctx, storeVersion, tierRows, groupRows); err != nil {
		return DraftUpsertResult{}, err
	}

	if len(cmd.GlobalRewardIDs) > 0 {
		if err := uc.Store.LinkGlobalRewards(ctx, promotionID, cmd.GlobalRewardIDs); err != nil {
			return DraftUpsertResult{}, err
		}
	}
	for _, tier := range cmd.Tiers {
		for _, group := range tier.Groups {
			if len(group.RewardIDs) == 0 {
				continue
			}
			groupID, ok := groupIDByTierOrder[[2]int{tier.TierLevel, group.Order}]
			if !ok {
				continue // group was skipped during compile; no row to link against
			}
			if err := uc.Store.LinkGroupRewards(ctx, groupID, group.RewardIDs); err != nil {
				return DraftUpsertResult{}, err
			}
		}
	}

	uc.logger().Info("promotion draft compiled",
		"event", "draft_compiled", "module", "authoring-compiler", "layer", "application",
		"promotionId", promotionID, "country", country, "version", version, "warningCount", len(compileResult.Warnings))

	return DraftUpsertResult{
		PromotionID:  promotionID,
		Version:      version,
		CountryISO:   country,
		WorkflowName: compileResult.Workflow.WorkflowName,
		Warnings:     compileResult.Warnings,
	}, nil
}
