package controllers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"devevents/internal/delivery/http/helpers"
	"devevents/internal/domain"
)

// multipartMemory is the part of a multipart form kept in memory; the rest spills to temp files.
const multipartMemory = 8 << 20

// UpdateEventRequest is the request body for PATCH /events/{slug}. All fields optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Overview    *string   `json:"overview"`
	Venue       *string   `json:"venue"`
	Location    *string   `json:"location"`
	Date        *string   `json:"date"`
	Time        *string   `json:"time"`
	Mode        *string   `json:"mode"`
	Audience    *string   `json:"audience"`
	Organizer   *string   `json:"organizer"`
	Agenda      *[]string `json:"agenda"`
	Tags        *[]string `json:"tags"`
}

// Validate implements Validator. At least one field must be present.
func (u UpdateEventRequest) Validate() []string {
	if u == (UpdateEventRequest{}) {
		return []string{"at least one field must be provided"}
	}
	return nil
}

func (u UpdateEventRequest) patch() *domain.EventPatch {
	return &domain.EventPatch{
		Title:       u.Title,
		Description: u.Description,
		Overview:    u.Overview,
		Venue:       u.Venue,
		Location:    u.Location,
		Date:        u.Date,
		Time:        u.Time,
		Mode:        u.Mode,
		Audience:    u.Audience,
		Organizer:   u.Organizer,
		Agenda:      u.Agenda,
		Tags:        u.Tags,
	}
}

// EventSuccessResponse is the success response envelope for a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEventsResponse is the data of GET /events.
type ListEventsResponse struct {
	Events     []*domain.Event        `json:"events"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListEventsSuccessResponse is the success response envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  ListEventsResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// EventListSuccessResponse is the success response envelope for a plain list of events.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// BookingCountResponse is the data of GET /events/{slug}/bookings/count.
type BookingCountResponse struct {
	EventID string `json:"event_id"`
	Count   int    `json:"count"`
}

// BookingCountSuccessResponse is the success response envelope for the booking count (200).
type BookingCountSuccessResponse struct {
	Data  BookingCountResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type EventController struct {
	Logger         *slog.Logger
	Service        domain.EventService
	Bookings       domain.BookingService
	MaxUploadBytes int64
	Production     bool
}

func NewEventController(logger *slog.Logger, svc domain.EventService, bookings domain.BookingService, maxUploadBytes int64, production bool) *EventController {
	return &EventController{
		Logger:         logger,
		Service:        svc,
		Bookings:       bookings,
		MaxUploadBytes: maxUploadBytes,
		Production:     production,
	}
}

func (c *EventController) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, c.Logger, c.Production, err)
}

// ListEvents godoc
// @Summary List events
// @Description Returns events newest first. page_size=all returns every event.
// @Tags events
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query string false "Page size (default 12, max 100, or all)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data contains events and pagination"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListEvents(r.Context(), params)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{
		Events:     events,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// GetEvent godoc
// @Summary Get an event by slug
// @Tags events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{slug} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetEventBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListSimilarEvents godoc
// @Summary List similar events
// @Description Events sharing at least one tag with the given event, excluding it. Unknown slugs yield an empty list.
// @Tags events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} controllers.EventListSuccessResponse "data contains the similar events"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{slug}/similar [get]
func (c *EventController) ListSimilarEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListSimilarEvents(r.Context(), r.PathValue("slug"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// CountBookings godoc
// @Summary Count bookings of an event
// @Tags bookings
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} controllers.BookingCountSuccessResponse "data contains the booking count"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{slug}/bookings/count [get]
func (c *EventController) CountBookings(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetEventBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	n, err := c.Bookings.CountBookings(r.Context(), event.ID)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, BookingCountResponse{EventID: event.ID, Count: n})
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Multipart form. tags and agenda are JSON arrays of strings; image is the cover file. The slug, date and time are normalized server-side.
// @Tags events
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param overview formData string true "Overview"
// @Param venue formData string true "Venue"
// @Param location formData string true "Location"
// @Param date formData string true "Date, any common format"
// @Param time formData string true "Time, HH:MM or HH:MM AM/PM"
// @Param mode formData string true "online, offline or hybrid"
// @Param audience formData string true "Audience"
// @Param organizer formData string true "Organizer"
// @Param tags formData string true "JSON array of strings"
// @Param agenda formData string true "JSON array of strings"
// @Param image formData file true "Cover image"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, error.details per field"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 413 {object} helpers.APIResponse "error.code: payload_too_large"
// @Failure 502 {object} helpers.APIResponse "error.code: upstream_error"
// @Failure 504 {object} helpers.APIResponse "error.code: upload_timeout"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if c.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, c.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.fail(w, r, err)
			return
		}
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	sub := &domain.EventSubmission{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Overview:    r.PostFormValue("overview"),
		Venue:       r.PostFormValue("venue"),
		Location:    r.PostFormValue("location"),
		Date:        r.PostFormValue("date"),
		Time:        r.PostFormValue("time"),
		Mode:        r.PostFormValue("mode"),
		Audience:    r.PostFormValue("audience"),
		Organizer:   r.PostFormValue("organizer"),
		Tags:        r.PostFormValue("tags"),
		Agenda:      r.PostFormValue("agenda"),
	}
	image, err := readUpload(r, "image")
	if err != nil {
		c.fail(w, r, err)
		return
	}
	sub.Image = image

	event, err := c.Service.CreateEvent(r.Context(), sub)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// readUpload returns the file posted under field, or nil when there is none.
func readUpload(r *http.Request, field string) (*domain.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &domain.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partial update. Omitted fields are unchanged; the slug is regenerated only when the title changes.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Event slug"
// @Param event body UpdateEventRequest true "Fields to change"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{slug} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.PathValue("slug"))
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), slug, req.patch())
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
