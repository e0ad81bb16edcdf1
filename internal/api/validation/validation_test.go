package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/feedrank/internal/models"
)

func intPtr(i int) *int { return &i }

func TestValidateStruct_SearchRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     models.SearchRequest
		wantErr string
	}{
		{name: "valid", req: models.SearchRequest{Query: "budget", TopK: intPtr(10), SourceFilter: []string{"gmail"}}},
		{name: "empty query", req: models.SearchRequest{}, wantErr: "query is required"},
		{name: "top_k too large", req: models.SearchRequest{Query: "q", TopK: intPtr(101)}, wantErr: "top_k must be at most 100"},
		{name: "unknown source", req: models.SearchRequest{Query: "q", SourceFilter: []string{"fax"}}, wantErr: "must be one of: gmail"},
		{name: "null byte", req: models.SearchRequest{Query: "a\x00b"}, wantErr: "must not contain NULL bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAndDecodeQueryParams(t *testing.T) {
	t.Run("decodes feed query", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/feed?limit=20&source=news", http.NoBody)

		var q models.FeedQuery
		require.NoError(t, ValidateAndDecodeQueryParams(r, &q))
		assert.Equal(t, 20, q.Limit)
		require.NotNil(t, q.Source)
		assert.Equal(t, "news", *q.Source)
	})

	t.Run("rejects unknown source", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/feed?source=fax", http.NoBody)

		var q models.FeedQuery
		assert.Error(t, ValidateAndDecodeQueryParams(r, &q))
	})

	t.Run("rejects non-numeric limit", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/feed?limit=abc", http.NoBody)

		var q models.FeedQuery
		assert.Error(t, ValidateAndDecodeQueryParams(r, &q))
	})
}

func TestDecodeJSONBody(t *testing.T) {
	var req models.SearchRequest

	r := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"hi","top_k":3}`))
	require.NoError(t, DecodeJSONBody(r, &req))
	assert.Equal(t, 3, *req.TopK)

	r = httptest.NewRequest(http.MethodPost, "/v1/search", http.NoBody)
	assert.EqualError(t, DecodeJSONBody(r, &req), "request body is empty")

	r = httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":`))
	assert.Error(t, DecodeJSONBody(r, &req))
}

func TestRespondValidationError(t *testing.T) {
	err := ValidateStruct(&models.SearchRequest{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	RespondValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"location":"SearchRequest.query"`)
}
