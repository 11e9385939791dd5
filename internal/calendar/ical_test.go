package calendar

import (
	"bytes"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"
)

func TestWriteICS(t *testing.T) {
	la := mustZone(t, "America/Los_Angeles")
	events := []*Event{
		NewEvent(&calendar.Event{
			Id:          "timed",
			ICalUID:     "timed@google.com",
			Summary:     "Standup",
			Description: "Daily sync",
			Location:    "Room 1",
			Status:      "confirmed",
			HtmlLink:    "https://calendar.google.com/event?eid=timed",
			Sequence:    2,
			Updated:     "2024-02-28T12:00:00Z",
			Start:       &calendar.EventDateTime{DateTime: "2024-03-01T10:00:00+01:00"},
			End:         &calendar.EventDateTime{DateTime: "2024-03-01T10:15:00+01:00"},
		}, la),
		NewEvent(&calendar.Event{
			Id:    "allday",
			Start: &calendar.EventDateTime{Date: "2024-06-10"},
			End:   &calendar.EventDateTime{Date: "2024-06-11"},
		}, la),
		NewEvent(&calendar.Event{Id: "cancelled-instance", Status: "cancelled"}, la),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, events))

	cal, err := ical.ParseCalendar(&buf)
	require.NoError(t, err)

	vevents := cal.Events()
	require.Len(t, vevents, 2, "events without a start are skipped")

	timed := vevents[0]
	assert.Equal(t, "timed@google.com", timed.Id())
	assert.Equal(t, "Standup", timed.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "Daily sync", timed.GetProperty(ical.ComponentPropertyDescription).Value)
	assert.Equal(t, "Room 1", timed.GetProperty(ical.ComponentPropertyLocation).Value)
	assert.Equal(t, "CONFIRMED", timed.GetProperty(ical.ComponentPropertyStatus).Value)
	assert.Equal(t, "2", timed.GetProperty(ical.ComponentPropertySequence).Value)
	assert.Equal(t, "20240301T090000Z", timed.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20240301T091500Z", timed.GetProperty(ical.ComponentPropertyDtEnd).Value)
	assert.Equal(t, "20240228T120000Z", timed.GetProperty(ical.ComponentPropertyDtstamp).Value)

	allDay := vevents[1]
	assert.Equal(t, "allday", allDay.Id(), "falls back to the event ID")
	assert.Equal(t, "20240610", allDay.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20240611", allDay.GetProperty(ical.ComponentPropertyDtEnd).Value)
	assert.Nil(t, allDay.GetProperty(ical.ComponentPropertySummary))
}

func TestWriteICS_InvalidStart(t *testing.T) {
	var buf bytes.Buffer
	err := WriteICS(&buf, []*Event{
		NewEvent(&calendar.Event{Id: "bad", Start: &calendar.EventDateTime{DateTime: "noon"}}, time.UTC),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Zero(t, buf.Len())
}

func TestWriteICS_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, nil))
	assert.Contains(t, buf.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, buf.String(), ProductID)
}
