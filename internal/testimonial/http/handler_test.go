package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/visa-cms-backend/internal/testimonial"
)

type stubService struct {
	testimonial.Service
	submitted []testimonial.SubmitRequest
	statusErr error
}

func (s *stubService) Submit(_ context.Context, req testimonial.SubmitRequest) (*testimonial.Testimonial, error) {
	s.submitted = append(s.submitted, req)
	return &testimonial.Testimonial{ID: "t-1", Status: testimonial.StatusPending}, nil
}

func (s *stubService) ListPublished(context.Context, int, int) ([]*testimonial.Testimonial, int, error) {
	now := time.Now()
	return []*testimonial.Testimonial{{
		ID: "t-1", Name: "Ayu", Email: "ayu@example.com", Description: "Great", Rating: 5,
		Status: testimonial.StatusPublished, PublishedAt: &now,
	}}, 1, nil
}

func (s *stubService) SetStatus(_ context.Context, id string, status testimonial.Status) (*testimonial.Testimonial, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return &testimonial.Testimonial{ID: id, Status: status}, nil
}

func setupRouter(svc testimonial.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), h)
	RegisterAdminRoutes(r.Group("/v1/admin"), h)
	return r
}

func postJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSubmit(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)

	w := postJSON(r, http.MethodPost, "/v1/testimonials",
		`{"name":"Ayu","email":"ayu@example.com","description":"Great","rating":5}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, svc.submitted, 1)

	for _, body := range []string{
		`{"name":"Ayu","email":"ayu@example.com","description":"Great","rating":9}`,
		`{"name":"Ayu","email":"nope","description":"Great","rating":4}`,
		`{"email":"ayu@example.com","description":"Great","rating":4}`,
	} {
		w := postJSON(r, http.MethodPost, "/v1/testimonials", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Len(t, svc.submitted, 1)
}

func TestListPublishedHidesEmail(t *testing.T) {
	r := setupRouter(&stubService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/testimonials", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []map[string]any `json:"items"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Items, 1)
	assert.NotContains(t, body.Items[0], "email")
}

func TestUpdateStatus(t *testing.T) {
	id := "2b1f1e54-6f0c-4a53-8f4f-5f8b3c1e2d10"

	r := setupRouter(&stubService{})
	w := postJSON(r, http.MethodPatch, "/v1/admin/testimonials/"+id+"/status", `{"status":"published"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, http.MethodPatch, "/v1/admin/testimonials/"+id+"/status", `{"status":"hidden"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = setupRouter(&stubService{statusErr: testimonial.ErrNotFound})
	w = postJSON(r, http.MethodPatch, "/v1/admin/testimonials/"+id+"/status", `{"status":"archived"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
