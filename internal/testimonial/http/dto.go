package http

import (
	"time"

	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/request"
	"github.com/nekogravitycat/visa-cms-backend/internal/testimonial"
)

// PublicTestimonialResponse omits the submitter's email.
type PublicTestimonialResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Rating      int        `json:"rating"`
	PublishedAt *time.Time `json:"published_at"`
}

type TestimonialResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Description string     `json:"description"`
	Rating      int        `json:"rating"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at"`
	ArchivedAt  *time.Time `json:"archived_at"`
}

func NewPublicResponse(t *testimonial.Testimonial) PublicTestimonialResponse {
	return PublicTestimonialResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Rating:      t.Rating,
		PublishedAt: t.PublishedAt,
	}
}

func NewResponse(t *testimonial.Testimonial) TestimonialResponse {
	return TestimonialResponse{
		ID:          t.ID,
		Name:        t.Name,
		Email:       t.Email,
		Description: t.Description,
		Rating:      t.Rating,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		PublishedAt: t.PublishedAt,
		ArchivedAt:  t.ArchivedAt,
	}
}

type SubmitRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Email       string `json:"email" binding:"required,email,max=254"`
	Description string `json:"description" binding:"required,max=2000"`
	Rating      int    `json:"rating" binding:"required,min=1,max=5"`
}

type ListRequest struct {
	request.ListParams
	Status string `form:"status" binding:"omitempty,oneof=pending published archived"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending published archived"`
}
