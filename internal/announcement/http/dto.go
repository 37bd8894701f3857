package http

import (
	"time"

	"github.com/nekogravitycat/visa-cms-backend/internal/announcement"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/cdn"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/content"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/request"
	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/timestamp"
)

type AnnouncementResponse struct {
	ID               string         `json:"id"`
	Slug             string         `json:"slug"`
	Title            content.Text   `json:"title"`
	ShortDescription content.Text   `json:"short_description"`
	Content          content.Text   `json:"content"`
	BannerImage      string         `json:"banner_image"`
	BannerImageURLs  *cdn.ImageURLs `json:"banner_image_urls,omitempty"`
	Status           string         `json:"status"`
	ShowOnMain       bool           `json:"show_on_main"`
	ScheduledDate    *time.Time     `json:"scheduled_date"`
	IsScheduled      bool           `json:"is_scheduled"`
	Dismissible      bool           `json:"dismissible"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func NewResponse(a *announcement.Announcement, resolver *cdn.Resolver, now time.Time) AnnouncementResponse {
	resp := AnnouncementResponse{
		ID:               a.ID,
		Slug:             a.Slug,
		Title:            a.Title,
		ShortDescription: a.ShortDescription,
		Content:          a.Content,
		BannerImage:      a.BannerImage,
		Status:           string(a.Status),
		ShowOnMain:       a.ShowOnMain,
		ScheduledDate:    a.ScheduledDate,
		IsScheduled:      announcement.IsScheduled(a, now),
		Dismissible:      a.Dismissible,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.BannerImage != "" && resolver != nil {
		urls := resolver.Resolve(a.BannerImage, cdn.Banner)
		resp.BannerImageURLs = &urls
	}
	return resp
}

type PublicListRequest struct {
	request.ListParams
	Keyword string `form:"q"`
	Filter  string `form:"filter" binding:"omitempty,oneof=all active scheduled"`
}

type AdminListRequest struct {
	request.ListParams
	Keyword    string `form:"q"`
	Status     string `form:"status" binding:"omitempty,oneof=active inactive"`
	Visibility string `form:"visibility" binding:"omitempty,oneof=all active scheduled"`
}

type SlugOrIDRequest struct {
	Key string `uri:"slugOrId" binding:"required,max=64"`
}

type CreateRequest struct {
	Title            content.Text       `json:"title"`
	ShortDescription content.Text       `json:"short_description"`
	Content          content.Text       `json:"content"`
	BannerImage      string             `json:"banner_image" binding:"omitempty,max=2048"`
	Status           string             `json:"status" binding:"omitempty,oneof=active inactive"`
	ShowOnMain       bool               `json:"show_on_main"`
	ScheduledDate    timestamp.Flexible `json:"scheduled_date"`
	Slug             string             `json:"slug" binding:"omitempty,max=50"`
	Dismissible      bool               `json:"dismissible"`
}

func (r CreateRequest) toService() announcement.CreateRequest {
	return announcement.CreateRequest{
		Title:            r.Title,
		ShortDescription: r.ShortDescription,
		Content:          r.Content,
		BannerImage:      r.BannerImage,
		Status:           announcement.Status(r.Status),
		ShowOnMain:       r.ShowOnMain,
		ScheduledDate:    r.ScheduledDate.Ptr(),
		Slug:             r.Slug,
		Dismissible:      r.Dismissible,
	}
}

// UpdateRequest is a partial update. A null scheduled_date keeps the current
// schedule; clear_scheduled_date removes it.
type UpdateRequest struct {
	Title              *content.Text       `json:"title"`
	ShortDescription   *content.Text       `json:"short_description"`
	Content            *content.Text       `json:"content"`
	BannerImage        *string             `json:"banner_image" binding:"omitempty,max=2048"`
	Status             *string             `json:"status" binding:"omitempty,oneof=active inactive"`
	ShowOnMain         *bool               `json:"show_on_main"`
	ScheduledDate      *timestamp.Flexible `json:"scheduled_date"`
	ClearScheduledDate bool                `json:"clear_scheduled_date"`
	Slug               *string             `json:"slug" binding:"omitempty,max=50"`
	Dismissible        *bool               `json:"dismissible"`
}

func (r UpdateRequest) toService() announcement.UpdateRequest {
	req := announcement.UpdateRequest{
		Title:              r.Title,
		ShortDescription:   r.ShortDescription,
		Content:            r.Content,
		BannerImage:        r.BannerImage,
		ShowOnMain:         r.ShowOnMain,
		ClearScheduledDate: r.ClearScheduledDate,
		Slug:               r.Slug,
		Dismissible:        r.Dismissible,
	}
	if r.Status != nil {
		status := announcement.Status(*r.Status)
		req.Status = &status
	}
	if r.ScheduledDate != nil {
		req.ScheduledDate = r.ScheduledDate.Ptr()
	}
	return req
}
