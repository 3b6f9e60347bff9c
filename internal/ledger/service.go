package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/packfinderz-cartfee/pkg/db/models"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/pagination"
	"github.com/google/uuid"
)

// Service records and lists fee adjustments.
type Service interface {
	Record(ctx context.Context, input RecordAdjustmentInput) (*models.FeeAdjustment, error)
	ListBySession(ctx context.Context, params ListParams) (*ListResult, error)
}

// ListParams selects one page of a session's adjustments.
type ListParams struct {
	SessionID string
	pagination.Params
}

// ListResult is a page of adjustments, newest first.
type ListResult struct {
	Adjustments []models.FeeAdjustment `json:"adjustments"`
	Cursor      string                 `json:"cursor,omitempty"`
}

type service struct {
	repo  Repository
	newID func() uuid.UUID
	now   func() time.Time
}

// RecordAdjustmentInput captures the immutable data an adjustment requires.
type RecordAdjustmentInput struct {
	SessionID      string                 `json:"session_id"`
	Source         enums.AdjustmentSource `json:"source"`
	Action         enums.FeeAction        `json:"action"`
	Trigger        enums.TriggerKind      `json:"trigger,omitempty"`
	LineKey        string                 `json:"line_key,omitempty"`
	Amount         int64                  `json:"amount_minor"`
	PreviousAmount int64                  `json:"previous_amount_minor"`
	Subtotal       int64                  `json:"subtotal_minor"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo, newID: uuid.New, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, input RecordAdjustmentInput) (*models.FeeAdjustment, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if !input.Source.IsValid() {
		return nil, fmt.Errorf("invalid adjustment source %q", input.Source)
	}
	if !input.Action.Mutates() || !input.Action.IsValid() {
		return nil, fmt.Errorf("adjustment action %q does not mutate the cart", input.Action)
	}
	if input.Amount < 0 || input.PreviousAmount < 0 || input.Subtotal < 0 {
		return nil, fmt.Errorf("adjustment amounts must not be negative")
	}

	adjustment := &models.FeeAdjustment{
		ID:                  s.newID(),
		SessionID:           input.SessionID,
		Source:              input.Source,
		Action:              input.Action,
		Trigger:             input.Trigger.String(),
		LineKey:             input.LineKey,
		AmountMinor:         input.Amount,
		PreviousAmountMinor: input.PreviousAmount,
		SubtotalMinor:       input.Subtotal,
		CreatedAt:           s.now().UTC(),
	}
	if err := s.repo.Create(ctx, adjustment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record fee adjustment")
	}
	return adjustment, nil
}

func (s *service) ListBySession(ctx context.Context, params ListParams) (*ListResult, error) {
	if strings.TrimSpace(params.SessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListBySession(ctx, params.SessionID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fee adjustments")
	}

	page, next := pagination.Split(rows, params.Limit, func(a models.FeeAdjustment) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	if page == nil {
		page = []models.FeeAdjustment{}
	}
	return &ListResult{Adjustments: page, Cursor: next}, nil
}
