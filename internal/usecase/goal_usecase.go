package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/infrastructure/metrics"
)

// GoalUseCase manages savings goals.
type GoalUseCase struct {
	goalRepo GoalRepository
	idGen    IDGenerator
	cache    *RecordCache
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewGoalUseCase creates a new GoalUseCase.
func NewGoalUseCase(goalRepo GoalRepository, idGen IDGenerator, cache *RecordCache, metrics *metrics.Metrics, logger zerolog.Logger) *GoalUseCase {
	return &GoalUseCase{
		goalRepo: goalRepo,
		idGen:    idGen,
		cache:    cache,
		metrics:  metrics,
		logger:   logger.With().Str("component", "goals").Logger(),
	}
}

// CreateGoalInput represents input for creating a goal.
type CreateGoalInput struct {
	OwnerID       string
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Currency      domain.Currency
	Deadline      *time.Time
}

// CreateGoal creates a savings goal.
func (uc *GoalUseCase) CreateGoal(ctx context.Context, input CreateGoalInput) (*domain.Goal, error) {
	if input.OwnerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	now := time.Now().UTC()

	goal := &domain.Goal{
		ID:            uc.idGen.Generate(),
		OwnerID:       input.OwnerID,
		Name:          strings.TrimSpace(input.Name),
		TargetAmount:  input.TargetAmount,
		CurrentAmount: input.CurrentAmount,
		Currency:      input.Currency,
		Deadline:      input.Deadline,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := domain.ValidateGoal(goal); err != nil {
		return nil, err
	}

	if err := uc.goalRepo.Create(ctx, nil, goal); err != nil {
		return nil, err
	}
	if uc.metrics != nil {
		uc.metrics.RecordsCreated.WithLabelValues(kindGoal).Inc()
	}
	return goal, nil
}

// GetGoal retrieves a goal by ID.
func (uc *GoalUseCase) GetGoal(ctx context.Context, ownerID, id string) (*domain.Goal, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	return uc.cache.GetGoal(ctx, uc.goalRepo, ownerID, id)
}

// ListGoals lists the owner's goals.
func (uc *GoalUseCase) ListGoals(ctx context.Context, ownerID string) ([]*domain.Goal, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	return uc.goalRepo.ListByOwner(ctx, ownerID)
}

// UpdateGoalInput carries the fields to change. Nil fields are left alone.
type UpdateGoalInput struct {
	Name         *string
	TargetAmount *decimal.Decimal
	Deadline     *time.Time
}

// UpdateGoal changes a goal's name, target or deadline.
func (uc *GoalUseCase) UpdateGoal(ctx context.Context, ownerID, id string, input UpdateGoalInput) (*domain.Goal, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	goal, err := uc.goalRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		goal.Name = strings.TrimSpace(*input.Name)
	}
	if input.TargetAmount != nil {
		goal.TargetAmount = *input.TargetAmount
	}
	if input.Deadline != nil {
		goal.Deadline = input.Deadline
	}
	if err := domain.ValidateGoal(goal); err != nil {
		return nil, err
	}

	goal.UpdatedAt = time.Now().UTC()
	if err := uc.goalRepo.Update(ctx, nil, goal); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, ownerID, id)
	return goal, nil
}

// DeleteGoal removes a goal. Contributions to it are kept.
func (uc *GoalUseCase) DeleteGoal(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return domain.ErrOwnerRequired
	}
	if err := uc.goalRepo.Delete(ctx, nil, ownerID, id); err != nil {
		return err
	}
	uc.invalidate(ctx, ownerID, id)
	return nil
}

func (uc *GoalUseCase) invalidate(ctx context.Context, ownerID, id string) {
	if err := uc.cache.Invalidate(ctx, kindGoal, ownerID, id); err != nil {
		uc.logger.Warn().Err(err).Str("goal_id", id).Msg("cache invalidation failed")
	}
}
