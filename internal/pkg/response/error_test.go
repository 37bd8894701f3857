package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/visa-cms-backend/internal/pkg/apperror"
)

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"app error", apperror.NotFound("image not found"), http.StatusNotFound, "image not found"},
		{"wrapped app error", errors.Join(errors.New("ctx"), apperror.Conflict("slug taken")), http.StatusConflict, "slug taken"},
		{"internal app error", apperror.Internal(errors.New("db down")), http.StatusInternalServerError, "internal server error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Error(c, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body.Error)
		})
	}
}

func TestNewPageResponse_EmptyItems(t *testing.T) {
	resp := NewPageResponse[string](nil, 1, 20, 0)
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"page":1,"page_size":20,"total":0,"total_pages":0,"has_next":false}`, string(out))
}

func TestNewPageResponse_Pages(t *testing.T) {
	resp := NewPageResponse([]int{1, 2}, 1, 2, 5)
	assert.Equal(t, 3, resp.TotalPages)
	assert.True(t, resp.HasNext)

	resp = NewPageResponse([]int{5}, 3, 2, 5)
	assert.False(t, resp.HasNext)
}
