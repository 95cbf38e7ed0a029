package handlers

import (
	"net/http"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
	"github.com/neeravgigglesandgrins/giggles/internal/http/response"
	"github.com/neeravgigglesandgrins/giggles/internal/repository"
)

type BranchHandlers struct {
	branches repository.BranchRepository
}

func NewBranchHandlers(branches repository.BranchRepository) *BranchHandlers {
	return &BranchHandlers{branches: branches}
}

// GET /api/branches
func (h *BranchHandlers) List(w http.ResponseWriter, r *http.Request) {
	branches, err := h.branches.ListActive(r.Context())
	if err != nil {
		response.DomainError(w, r, err)
		return
	}
	if branches == nil {
		branches = []domain.Branch{}
	}
	response.WriteJSON(w, http.StatusOK, branches)
}
