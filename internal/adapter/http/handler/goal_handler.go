package handler

import (
	"context"
	"net/http"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// GoalService defines the behavior needed by GoalHandler.
type GoalService interface {
	CreateGoal(ctx context.Context, input usecase.CreateGoalInput) (*domain.Goal, error)
	GetGoal(ctx context.Context, ownerID, id string) (*domain.Goal, error)
	ListGoals(ctx context.Context, ownerID string) ([]*domain.Goal, error)
	UpdateGoal(ctx context.Context, ownerID, id string, input usecase.UpdateGoalInput) (*domain.Goal, error)
	DeleteGoal(ctx context.Context, ownerID, id string) error
}

// GoalHandler handles savings goal requests.
type GoalHandler struct {
	goalUC GoalService
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalUC GoalService) *GoalHandler {
	return &GoalHandler{goalUC: goalUC}
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := h.goalUC.CreateGoal(r.Context(), req.ToUseCaseInput(owner(r)))
	if err != nil {
		writeDomainError(w, r, "failed to create goal", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.GoalFromDomain(goal))
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "goal")
	if !ok {
		return
	}

	goal, err := h.goalUC.GetGoal(r.Context(), owner(r), id)
	if err != nil {
		writeDomainError(w, r, "failed to get goal", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GoalFromDomain(goal))
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.goalUC.ListGoals(r.Context(), owner(r))
	if err != nil {
		writeDomainError(w, r, "failed to list goals", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.GoalsFromDomain(goals)))
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "goal")
	if !ok {
		return
	}
	var req dto.UpdateGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := h.goalUC.UpdateGoal(r.Context(), owner(r), id, req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to update goal", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.GoalFromDomain(goal))
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "goal")
	if !ok {
		return
	}

	if err := h.goalUC.DeleteGoal(r.Context(), owner(r), id); err != nil {
		writeDomainError(w, r, "failed to delete goal", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
