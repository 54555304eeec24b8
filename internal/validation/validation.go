// Package validation checks event submissions and booking input in one pass,
// collecting every violated field instead of stopping at the first.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"devevents/internal/domain"
	"devevents/internal/normalize"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// eventFields is the validated shape of an event; field names match the form keys.
type eventFields struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Overview    string   `json:"overview" validate:"required"`
	Venue       string   `json:"venue" validate:"required"`
	Location    string   `json:"location" validate:"required"`
	Date        string   `json:"date" validate:"required"`
	Time        string   `json:"time" validate:"required"`
	Mode        string   `json:"mode" validate:"required,oneof=online offline hybrid"`
	Audience    string   `json:"audience" validate:"required"`
	Organizer   string   `json:"organizer" validate:"required"`
	Agenda      []string `json:"agenda" validate:"min=1"`
	Tags        []string `json:"tags" validate:"min=1"`
}

var messages = map[string]string{
	"title":       "Title is required",
	"description": "Description is required",
	"overview":    "Overview is required",
	"venue":       "Venue is required",
	"location":    "Location is required",
	"date":        "Date is required",
	"time":        "Time is required",
	"audience":    "Audience is required",
	"organizer":   "Organizer is required",
	"agenda":      "Agenda must contain at least one item",
	"tags":        "At least one tag is required",
}

// EventSubmission validates sub and returns the cleaned draft. On failure the
// error is a *domain.ValidationError naming every offending field.
func EventSubmission(sub *domain.EventSubmission, dates *normalize.DateParser) (*domain.EventDraft, error) {
	verr := &domain.ValidationError{}

	tags, err := decodeList(sub.Tags)
	if err != nil {
		verr.Add("tags", err.Error())
	}
	agenda, err := decodeList(sub.Agenda)
	if err != nil {
		verr.Add("agenda", err.Error())
	}

	f := eventFields{
		Title:       strings.TrimSpace(sub.Title),
		Description: strings.TrimSpace(sub.Description),
		Overview:    strings.TrimSpace(sub.Overview),
		Venue:       strings.TrimSpace(sub.Venue),
		Location:    strings.TrimSpace(sub.Location),
		Date:        strings.TrimSpace(sub.Date),
		Time:        strings.TrimSpace(sub.Time),
		Mode:        strings.ToLower(strings.TrimSpace(sub.Mode)),
		Audience:    strings.TrimSpace(sub.Audience),
		Organizer:   strings.TrimSpace(sub.Organizer),
		Agenda:      agenda,
		Tags:        tags,
	}
	verr.Merge(checkFields(f))

	if f.Title != "" && normalize.Slugify(f.Title) == "" {
		verr.Add("title", "Title must contain at least one letter or digit")
	}
	if f.Date != "" {
		if _, ok := dates.Parse(f.Date); !ok {
			verr.Add("date", "Invalid date format. Please provide a valid date.")
		}
	}
	clock := ""
	if f.Time != "" {
		var ok bool
		if clock, ok = normalize.Time(f.Time); !ok {
			verr.Add("time", "Invalid time format. Use HH:MM or HH:MM AM/PM.")
		}
	}
	if sub.Image == nil || len(sub.Image.Data) == 0 {
		verr.Add("image", "Image file is required")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return &domain.EventDraft{
		Title:       f.Title,
		Description: f.Description,
		Overview:    f.Overview,
		Venue:       f.Venue,
		Location:    f.Location,
		Date:        f.Date,
		Time:        clock,
		Mode:        domain.EventMode(f.Mode),
		Audience:    f.Audience,
		Organizer:   f.Organizer,
		Tags:        tags,
		Agenda:      agenda,
	}, nil
}

// Event re-checks a complete event record before it is written.
func Event(e *domain.Event) error {
	verr := checkFields(eventFields{
		Title:       e.Title,
		Description: e.Description,
		Overview:    e.Overview,
		Venue:       e.Venue,
		Location:    e.Location,
		Date:        e.Date,
		Time:        e.Time,
		Mode:        string(e.Mode),
		Audience:    e.Audience,
		Organizer:   e.Organizer,
		Agenda:      e.Agenda,
		Tags:        e.Tags,
	})
	if strings.TrimSpace(e.Image) == "" {
		verr.Add("image", "Image is required")
	}
	return verr.OrNil()
}

// checkFields runs the struct rules on f and converts failures to field messages.
func checkFields(f eventFields) *domain.ValidationError {
	verr := &domain.ValidationError{}
	err := validate.Struct(f)
	if err == nil {
		return verr
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		verr.Add("_", err.Error())
		return verr
	}
	for _, fe := range ves {
		verr.Add(fe.Field(), message(fe))
	}
	return verr
}

func message(fe validator.FieldError) string {
	if fe.Field() == "mode" && fe.Tag() == "oneof" {
		return "Mode must be one of: online, offline, hybrid"
	}
	if fe.Field() == "mode" {
		return "Mode is required"
	}
	if m, ok := messages[fe.Field()]; ok {
		return m
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// decodeList decodes a JSON array of strings, trimming items and dropping empty ones.
// An empty input decodes to an empty list so the min rule reports it.
func decodeList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, errors.New("must be a JSON array of strings")
	}
	return CleanList(items), nil
}

// CleanList trims every item and drops the empty ones.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// Email lower-cases and trims raw and checks it against the address grammar.
func Email(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.NewValidationError("email", "Email is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", domain.NewValidationError("email", "Please provide a valid email address")
	}
	return email, nil
}
