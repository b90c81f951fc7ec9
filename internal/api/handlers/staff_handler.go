package handlers

import (
	"net/http"

	"github.com/leafhq/leaf/backend/internal/domain/entities"
	"github.com/leafhq/leaf/backend/internal/domain/repositories"
)

// StaffHandler handles staff back-office HTTP requests
type StaffHandler struct {
	userRepo repositories.UserRepository
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(userRepo repositories.UserRepository) *StaffHandler {
	return &StaffHandler{
		userRepo: userRepo,
	}
}

// ListStaff handles GET /api/staffs
func (h *StaffHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 30)

	staff, err := h.userRepo.ListByRoles(r.Context(),
		[]entities.UserRole{entities.UserRoleStaff, entities.UserRoleAdmin},
		limit, offset,
	)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"staffs": staff,
		"count":  len(staff),
	})
}
