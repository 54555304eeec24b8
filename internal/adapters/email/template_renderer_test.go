package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devevents/internal/domain"
)

func TestTemplateRenderer_BookingConfirmation(t *testing.T) {
	r := NewTemplateRenderer()
	data := &domain.BookingConfirmationEmailData{
		Email:      "ada@example.com",
		EventTitle: "Go <Meetup>",
		EventSlug:  "go-meetup",
		Date:       "2024-08-20",
		Time:       "18:30",
		Venue:      "Hall A",
		Location:   "Berlin",
		Mode:       "offline",
	}

	subject, html, text, err := r.Render("booking_confirmation", data)
	require.NoError(t, err)
	assert.Equal(t, "You're booked: Go <Meetup>", subject)
	assert.Contains(t, html, "Go &lt;Meetup&gt;")
	assert.Contains(t, html, `href="/events/go-meetup"`)
	assert.Contains(t, text, "2024-08-20 at 18:30")
	assert.Contains(t, text, "Hall A, Berlin (offline)")
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	_, _, _, err := NewTemplateRenderer().Render("missing", nil)
	require.Error(t, err)
}
