package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"devevents/internal/delivery/http/helpers"
	"devevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	createEventErr  error
	updateEventErr  error
	getEventErr     error
	listEventsErr   error
	listSimilarErr  error
	event           *domain.Event
	events          []*domain.Event
	total           int
	lastSubmission  *domain.EventSubmission
	lastUpdateSlug  string
	lastPatch       *domain.EventPatch
	lastGetSlug     string
	lastListParams  domain.PaginationParams
	lastSimilarSlug string
}

func (f *fakeEventService) CreateEvent(ctx context.Context, sub *domain.EventSubmission) (*domain.Event, error) {
	f.lastSubmission = sub
	if f.createEventErr != nil {
		return nil, f.createEventErr
	}
	return f.event, nil
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, slug string, patch *domain.EventPatch) (*domain.Event, error) {
	f.lastUpdateSlug = slug
	f.lastPatch = patch
	if f.updateEventErr != nil {
		return nil, f.updateEventErr
	}
	return f.event, nil
}

func (f *fakeEventService) GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	f.lastGetSlug = slug
	if f.getEventErr != nil {
		return nil, f.getEventErr
	}
	return f.event, nil
}

func (f *fakeEventService) GetEventByID(ctx context.Context, id string) (*domain.Event, error) {
	return f.event, f.getEventErr
}

func (f *fakeEventService) ListEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastListParams = params
	if f.listEventsErr != nil {
		return nil, 0, f.listEventsErr
	}
	return f.events, f.total, nil
}

func (f *fakeEventService) ListSimilarEvents(ctx context.Context, slug string) ([]*domain.Event, error) {
	f.lastSimilarSlug = slug
	if f.listSimilarErr != nil {
		return nil, f.listSimilarErr
	}
	return f.events, nil
}

// fakeBookingService implements domain.BookingService for handler tests.
type fakeBookingService struct {
	createErr    error
	countErr     error
	count        int
	lastEventID  string
	lastEmail    string
	lastCountFor string
}

func (f *fakeBookingService) CreateBooking(ctx context.Context, eventID, email string) (*domain.Booking, error) {
	f.lastEventID = eventID
	f.lastEmail = email
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Booking{ID: "b-1", EventID: eventID, Email: email}, nil
}

func (f *fakeBookingService) CountBookings(ctx context.Context, eventID string) (int, error) {
	f.lastCountFor = eventID
	return f.count, f.countErr
}

func sampleEvent() *domain.Event {
	return &domain.Event{
		ID:    "6f1c2a9e-4b7d-4c3e-9a51-2d8f0b7e6c14",
		Title: "Go Meetup",
		Slug:  "go-meetup",
		Date:  "2024-08-20",
		Time:  "18:30",
		Mode:  domain.ModeOffline,
		Tags:  []string{"go"},
	}
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) (json.RawMessage, *helpers.APIError) {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope.Data, envelope.Error
}

// multipartBody builds a multipart form from fields and, when image is non-nil, an image part.
func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "cover.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"title":       "Go Meetup",
		"description": "Gophers meet",
		"overview":    "Talks",
		"venue":       "Hall A",
		"location":    "Berlin",
		"date":        "2024-08-20",
		"time":        "6:30 PM",
		"mode":        "offline",
		"audience":    "Developers",
		"organizer":   "Berlin Gophers",
		"tags":        `["go"]`,
		"agenda":      `["Welcome"]`,
	}
}

func TestEventController_CreateEvent(t *testing.T) {
	tests := []struct {
		name        string
		fields      map[string]string
		image       []byte
		contentType string
		serviceErr  error
		wantStatus  int
		wantCode    string
		wantDetail  string
	}{
		{
			name:       "created",
			fields:     validFields(),
			image:      []byte("png-bytes"),
			wantStatus: http.StatusCreated,
		},
		{
			name: "missing mode is reported per field",
			fields: func() map[string]string {
				f := validFields()
				delete(f, "mode")
				return f
			}(),
			image:      []byte("png-bytes"),
			serviceErr: domain.NewValidationError("mode", "Mode is required"),
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantDetail: "mode",
		},
		{
			name:        "not multipart",
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantCode:    helpers.ErrCodeBadRequest,
		},
		{
			name:       "slug conflict",
			fields:     validFields(),
			image:      []byte("png-bytes"),
			serviceErr: &domain.ConflictError{Field: "slug", Value: "go-meetup"},
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "upload timeout",
			fields:     validFields(),
			image:      []byte("png-bytes"),
			serviceErr: &domain.UpstreamError{Op: "image upload", Timeout: true},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   helpers.ErrCodeUploadTimeout,
		},
		{
			name:       "upload failure",
			fields:     validFields(),
			image:      []byte("png-bytes"),
			serviceErr: &domain.UpstreamError{Op: "image upload", Err: errors.New("denied")},
			wantStatus: http.StatusBadGateway,
			wantCode:   helpers.ErrCodeUpstream,
		},
		{
			name:       "database down",
			fields:     validFields(),
			image:      []byte("png-bytes"),
			serviceErr: &domain.ConnectionError{Err: errors.New("refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   helpers.ErrCodeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{event: sampleEvent(), createEventErr: tt.serviceErr}
			c := NewEventController(testLogger, svc, &fakeBookingService{}, 1<<20, true)

			var req *http.Request
			if tt.contentType != "" {
				req = httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"title":"x"}`))
				req.Header.Set("Content-Type", tt.contentType)
			} else {
				body, ct := multipartBody(t, tt.fields, tt.image)
				req = httptest.NewRequest(http.MethodPost, "/events", body)
				req.Header.Set("Content-Type", ct)
			}
			rr := httptest.NewRecorder()

			c.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			data, apiErr := decodeEnvelope(t, rr)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				if tt.wantDetail != "" {
					assert.Contains(t, apiErr.Details, tt.wantDetail)
				}
				return
			}
			assert.Nil(t, apiErr)
			var got domain.Event
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, "go-meetup", got.Slug)

			sub := svc.lastSubmission
			require.NotNil(t, sub)
			assert.Equal(t, "Go Meetup", sub.Title)
			assert.Equal(t, "6:30 PM", sub.Time)
			assert.Equal(t, `["go"]`, sub.Tags)
			require.NotNil(t, sub.Image)
			assert.Equal(t, "cover.png", sub.Image.Filename)
			assert.Equal(t, []byte("png-bytes"), sub.Image.Data)
		})
	}
}

func TestEventController_CreateEvent_NoImagePassesNil(t *testing.T) {
	svc := &fakeEventService{createEventErr: domain.NewValidationError("image", "Image file is required")}
	c := NewEventController(testLogger, svc, &fakeBookingService{}, 1<<20, false)
	body, ct := multipartBody(t, validFields(), nil)
	req := httptest.NewRequest(http.MethodPost, "/events", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	c.CreateEvent(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.NotNil(t, svc.lastSubmission)
	assert.Nil(t, svc.lastSubmission.Image)
	_, apiErr := decodeEnvelope(t, rr)
	assert.Equal(t, "Image file is required", apiErr.Details["image"])
}

func TestEventController_GetEvent(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "found", wantStatus: http.StatusOK},
		{name: "not found", err: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "unexpected error hidden in production", err: errors.New("pq: secret detail"), wantStatus: http.StatusInternalServerError, wantCode: helpers.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{event: sampleEvent(), getEventErr: tt.err}
			c := NewEventController(testLogger, svc, &fakeBookingService{}, 0, true)
			req := httptest.NewRequest(http.MethodGet, "/events/Go-Meetup", nil)
			req.SetPathValue("slug", "Go-Meetup")
			rr := httptest.NewRecorder()

			c.GetEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "Go-Meetup", svc.lastGetSlug)
			_, apiErr := decodeEnvelope(t, rr)
			if tt.wantCode == "" {
				assert.Nil(t, apiErr)
				return
			}
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.NotContains(t, apiErr.Message, "secret")
		})
	}
}

func TestEventController_ListEvents(t *testing.T) {
	svc := &fakeEventService{events: []*domain.Event{sampleEvent()}, total: 25}
	c := NewEventController(testLogger, svc, &fakeBookingService{}, 0, false)
	req := httptest.NewRequest(http.MethodGet, "/events?page=2&page_size=10", nil)
	rr := httptest.NewRecorder()

	c.ListEvents(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.PaginationParams{Page: 2, PageSize: 10}, svc.lastListParams)
	data, _ := decodeEnvelope(t, rr)
	var got ListEventsResponse
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Events, 1)
	assert.Equal(t, helpers.PaginationMeta{Page: 2, PageSize: 10, Total: 25, TotalPages: 3}, got.Pagination)
}

func TestEventController_ListSimilarEvents(t *testing.T) {
	svc := &fakeEventService{events: []*domain.Event{}}
	c := NewEventController(testLogger, svc, &fakeBookingService{}, 0, false)
	req := httptest.NewRequest(http.MethodGet, "/events/unknown/similar", nil)
	req.SetPathValue("slug", "unknown")
	rr := httptest.NewRecorder()

	c.ListSimilarEvents(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "unknown", svc.lastSimilarSlug)
	data, _ := decodeEnvelope(t, rr)
	assert.JSONEq(t, `[]`, string(data))
}

func TestEventController_CountBookings(t *testing.T) {
	svc := &fakeEventService{event: sampleEvent()}
	bookings := &fakeBookingService{count: 7}
	c := NewEventController(testLogger, svc, bookings, 0, false)
	req := httptest.NewRequest(http.MethodGet, "/events/go-meetup/bookings/count", nil)
	req.SetPathValue("slug", "go-meetup")
	rr := httptest.NewRecorder()

	c.CountBookings(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, sampleEvent().ID, bookings.lastCountFor)
	data, _ := decodeEnvelope(t, rr)
	assert.JSONEq(t, `{"event_id":"6f1c2a9e-4b7d-4c3e-9a51-2d8f0b7e6c14","count":7}`, string(data))
}

func TestEventController_UpdateEvent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{name: "updated", body: `{"title":"Go Night","tags":["go","cloud"]}`, wantStatus: http.StatusOK},
		{name: "empty patch", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "unknown field", body: `{"slug":"hijack"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "not found", body: `{"title":"x"}`, serviceErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "invalid time", body: `{"time":"25:00"}`, serviceErr: domain.NewValidationError("time", "Invalid time format. Use HH:MM or HH:MM AM/PM."), wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{event: sampleEvent(), updateEventErr: tt.serviceErr}
			c := NewEventController(testLogger, svc, &fakeBookingService{}, 0, false)
			req := httptest.NewRequest(http.MethodPatch, "/events/go-meetup", strings.NewReader(tt.body))
			req.SetPathValue("slug", "go-meetup")
			rr := httptest.NewRecorder()

			c.UpdateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			_, apiErr := decodeEnvelope(t, rr)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			assert.Equal(t, "go-meetup", svc.lastUpdateSlug)
			require.NotNil(t, svc.lastPatch.Title)
			assert.Equal(t, "Go Night", *svc.lastPatch.Title)
			assert.Equal(t, []string{"go", "cloud"}, *svc.lastPatch.Tags)
			assert.Nil(t, svc.lastPatch.Mode)
		})
	}
}
