package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devevents/internal/domain"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  domain.PaginationParams
	}{
		{query: "", want: domain.PaginationParams{Page: 1, PageSize: DefaultPageSize}},
		{query: "page=3&page_size=5", want: domain.PaginationParams{Page: 3, PageSize: 5}},
		{query: "page=0&page_size=-1", want: domain.PaginationParams{Page: 1, PageSize: DefaultPageSize}},
		{query: "page=abc&page_size=1000", want: domain.PaginationParams{Page: 1, PageSize: MaxPageSize}},
		{query: "page=9223372036854775807&page_size=100", want: domain.PaginationParams{Page: MaxPage, PageSize: 100}},
		{query: "page=4&page_size=all", want: domain.PaginationParams{Page: 1, PageSize: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/events?"+tt.query, nil)
			assert.Equal(t, tt.want, ParsePagination(r))
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	assert.Equal(t, PaginationMeta{Page: 2, PageSize: 10, Total: 21, TotalPages: 3},
		NewPaginationMeta(domain.PaginationParams{Page: 2, PageSize: 10}, 21))
	assert.Equal(t, PaginationMeta{Page: 1, Total: 7, TotalPages: 1},
		NewPaginationMeta(domain.PaginationParams{Page: 1}, 7))
	assert.Equal(t, 0, NewPaginationMeta(domain.PaginationParams{Page: 1}, 0).TotalPages)
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		production bool
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{name: "validation", err: domain.NewValidationError("mode", "Mode is required"), wantStatus: 400, wantCode: ErrCodeBadRequest},
		{name: "not found", err: fmt.Errorf("get: %w", domain.ErrNotFound), wantStatus: 404, wantCode: ErrCodeNotFound},
		{name: "conflict", err: &domain.ConflictError{Field: "slug", Value: "x"}, wantStatus: 409, wantCode: ErrCodeConflict},
		{name: "dangling", err: &domain.DanglingReferenceError{EventID: "e1"}, wantStatus: 422, wantCode: ErrCodeInvalidReference, wantMsg: "event with ID e1 does not exist"},
		{name: "upload timeout", err: &domain.UpstreamError{Op: "image upload", Timeout: true}, wantStatus: 504, wantCode: ErrCodeUploadTimeout},
		{name: "upload failure", err: &domain.UpstreamError{Op: "image upload", Err: errors.New("403")}, wantStatus: 502, wantCode: ErrCodeUpstream},
		{name: "connection", err: fmt.Errorf("get event: %w", &domain.ConnectionError{Err: errors.New("refused")}), wantStatus: 503, wantCode: ErrCodeUnavailable},
		{name: "body too large", err: &http.MaxBytesError{Limit: 10}, wantStatus: 413, wantCode: ErrCodePayloadTooLarge},
		{name: "unexpected in development", err: errors.New("boom"), wantStatus: 500, wantCode: ErrCodeInternalError, wantMsg: "boom"},
		{name: "unexpected in production", err: errors.New("boom"), production: true, wantStatus: 500, wantCode: ErrCodeInternalError, wantMsg: "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, apiErr := ErrorResponse(tt.err, tt.production)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, apiErr.Message)
			}
		})
	}
}

func TestErrorResponse_ValidationDetails(t *testing.T) {
	verr := domain.NewValidationError("mode", "Mode is required")
	verr.Add("tags", "At least one tag is required")

	status, apiErr := ErrorResponse(verr, true)
	rr := httptest.NewRecorder()
	WriteAPIError(rr, status, apiErr)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body struct {
		Data  any `json:"data"`
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Nil(t, body.Data)
	assert.Equal(t, "Mode is required", body.Error.Details["mode"])
	assert.Len(t, body.Error.Details, 2)
}

type createRequest struct {
	Name string `json:"name"`
}

func (c createRequest) Validate() []string {
	if c.Name == "" {
		return []string{"name is required"}
	}
	return nil
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		limit      int64
		wantOK     bool
		wantStatus int
	}{
		{name: "valid", body: `{"name":"x"}`, wantOK: true},
		{name: "unknown field", body: `{"name":"x","extra":1}`, wantStatus: 400},
		{name: "fails Validate", body: `{"name":""}`, wantStatus: 400},
		{name: "malformed", body: `{`, wantStatus: 400},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", 64) + `"}`, limit: 16, wantStatus: 413},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(tt.body))
			if tt.limit > 0 {
				r.Body = http.MaxBytesReader(rr, r.Body, tt.limit)
			}
			var req createRequest
			ok := DecodeAndValidate(rr, r, &req)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, tt.wantStatus, rr.Code)
			}
		})
	}
}
