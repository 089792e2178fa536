package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quote-engine/internal/assembler"
	"quote-engine/internal/catalog"
	"quote-engine/internal/jsonpatch"
	"quote-engine/internal/logger"
	"quote-engine/internal/metrics"
	"quote-engine/internal/model"
	"quote-engine/internal/mutations"
)

type Engine struct {
	catalog catalog.Source
	now     func() time.Time
}

func New(source catalog.Source, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{catalog: source, now: now}
}

// Process replays the edits on an empty draft. Processing stops at the first CRITICAL
// message; the end situation is the draft after the last edit that applied cleanly.
func (e *Engine) Process(ctx context.Context, req *model.CalculationRequest) *model.CalculationResponse {
	start := time.Now()
	env := &mutations.Env{Catalog: e.catalog, Now: e.now, TenantID: req.TenantID}

	var state *model.Draft

	allMessages := []model.CalculationMessage{}
	var processed []model.ProcessedEdit
	outcome := model.OutcomeSuccess

	end := model.DraftEnvelope{}
	if len(req.Edits) > 0 {
		end.EditID = req.Edits[0].EditID
		end.ActualAt = req.Edits[0].ActualAt
	}

	record := func(msgs []model.CalculationMessage, indexes []int) ([]int, bool) {
		critical := false
		for _, m := range msgs {
			m.ID = len(allMessages)
			allMessages = append(allMessages, m)
			indexes = append(indexes, m.ID)
			if m.Level == model.LevelCritical {
				critical = true
			}
		}
		return indexes, critical
	}

	for i := range req.Edits {
		edit := req.Edits[i]

		handler, ok := mutations.Get(edit.Name)
		if !ok {
			metrics.Edits.WithLabelValues("unknown").Inc()
			indexes, _ := record([]model.CalculationMessage{
				model.Critical("UNKNOWN_EDIT", fmt.Sprintf("Unknown edit: %s", edit.Name)),
			}, nil)
			processed = append(processed, model.ProcessedEdit{Edit: edit, CalculationMessageIndexes: indexes})
			outcome = model.OutcomeFailure
			break
		}
		metrics.Edits.WithLabelValues(edit.Name).Inc()

		indexes, critical := record(handler.Validate(ctx, env, state, &edit), nil)
		if critical {
			processed = append(processed, model.ProcessedEdit{Edit: edit, CalculationMessageIndexes: indexes})
			outcome = model.OutcomeFailure
			logger.CtxDebug(ctx, "edit rejected", "edit", edit.Name, "index", i)
			break
		}

		next, applyMsgs := handler.Apply(ctx, env, state, &edit)
		indexes, critical = record(applyMsgs, indexes)

		pe := model.ProcessedEdit{Edit: edit, CalculationMessageIndexes: indexes}
		if critical {
			processed = append(processed, pe)
			outcome = model.OutcomeFailure
			logger.CtxDebug(ctx, "edit failed", "edit", edit.Name, "index", i)
			break
		}

		fwd, bwd, err := jsonpatch.Between(state, next)
		if err != nil {
			logger.CtxWarn(ctx, "draft patch failed", "edit", edit.Name, "error", err.Error())
		}
		pe.Patch, pe.Undo = fwd, bwd
		processed = append(processed, pe)

		state = next
		end = model.DraftEnvelope{EditID: edit.EditID, EditIndex: i, ActualAt: edit.ActualAt}
	}

	end.Draft = state

	result := model.CalculationResult{
		Messages:     allMessages,
		Edits:        processed,
		EndSituation: end,
		Issues:       []model.Issue{},
	}
	if state != nil {
		quote, issues := assembler.Assemble(*state)
		summary := assembler.Summarize(*state)
		result.Quote = quote
		result.Summary = &summary
		if issues != nil {
			result.Issues = issues
		}
		result.FirstSection = assembler.FirstSection(issues)
	}

	metrics.Calculations.WithLabelValues(outcome).Inc()

	elapsed := time.Since(start)
	now := time.Now().UTC()

	draftID := ""
	if state != nil {
		draftID = state.ID
	}

	return &model.CalculationResponse{
		CalculationMetadata: model.CalculationMetadata{
			CalculationID:          uuid.New().String(),
			TenantID:               req.TenantID,
			DraftID:                draftID,
			CalculationStartedAt:   now.Add(-elapsed).Format(time.RFC3339),
			CalculationCompletedAt: now.Format(time.RFC3339),
			CalculationDurationMs:  elapsed.Milliseconds(),
			CalculationOutcome:     outcome,
		},
		CalculationResult: result,
	}
}
