package http

import (
	"time"

	"github.com/nekogravitycat/visa-cms-backend/internal/admin"
)

type AdminResponse struct {
	Email     string     `json:"email"`
	AddedBy   string     `json:"added_by,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Static    bool       `json:"static"`
}

func NewAdminResponse(a *admin.Admin) AdminResponse {
	resp := AdminResponse{
		Email:   a.Email,
		AddedBy: a.AddedBy,
		Static:  a.Static,
	}
	if !a.CreatedAt.IsZero() {
		t := a.CreatedAt
		resp.CreatedAt = &t
	}
	return resp
}

type AddRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ByEmailRequest struct {
	Email string `uri:"email" binding:"required"`
}
