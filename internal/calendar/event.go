package calendar

import (
	"errors"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// ErrNoDate is returned when an event boundary carries neither a date nor
// a dateTime.
var ErrNoDate = errors.New("date object not available")

const dateLayout = "2006-01-02"

// Event is a read-only view of a Calendar API event.
type Event struct {
	src   *calendar.Event
	local *time.Location
}

// NewEvent wraps src. local is the zone used for all-day dates and
// offset-less times that carry no time zone of their own; nil means
// time.Local.
func NewEvent(src *calendar.Event, local *time.Location) *Event {
	if src == nil {
		src = &calendar.Event{}
	}
	if local == nil {
		local = time.Local
	}
	return &Event{src: src, local: local}
}

// Source returns the wrapped API event.
func (e *Event) Source() *calendar.Event { return e.src }

// ID returns the event identifier within its calendar.
func (e *Event) ID() string { return e.src.Id }

// Name returns the event title.
func (e *Event) Name() string { return e.src.Summary }

// Description returns the event description, possibly HTML.
func (e *Event) Description() string { return e.src.Description }

// Location returns the free-form event location.
func (e *Event) Location() string { return e.src.Location }

// Status returns "confirmed", "tentative" or "cancelled".
func (e *Event) Status() string { return e.src.Status }

// ICalUID returns the iCalendar UID shared by all instances of a
// recurring event.
func (e *Event) ICalUID() string { return e.src.ICalUID }

// Sequence returns the iCalendar revision number of the event.
func (e *Event) Sequence() int64 { return e.src.Sequence }

// AllDay reports whether the event starts on a date rather than at a time.
func (e *Event) AllDay() bool {
	return e.src.Start != nil && e.src.Start.DateTime == "" && e.src.Start.Date != ""
}

// StartTime returns the start of the event, converted to zone when zone is
// not nil.
func (e *Event) StartTime(zone *time.Location) (time.Time, error) {
	return e.resolve(e.src.Start, zone)
}

// EndTime returns the end of the event, converted to zone when zone is not
// nil. For all-day events this is midnight after the last day.
func (e *Event) EndTime(zone *time.Location) (time.Time, error) {
	return e.resolve(e.src.End, zone)
}

// LastUpdate returns the modification time of the event, read as UTC and
// converted to zone when zone is not nil.
func (e *Event) LastUpdate(zone *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, e.src.Updated)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid updated timestamp %q: %w", e.src.Updated, err)
	}
	t = t.UTC()
	if zone != nil {
		t = t.In(zone)
	}
	return t, nil
}

// resolve turns an API date or dateTime into a time.Time.
//
//   - dateTime with an explicit timeZone: the instant, expressed in that zone
//   - dateTime without timeZone: the literal offset is kept
//   - dateTime without an offset: read in timeZone, else the local zone
//   - date: midnight in timeZone, else the local zone
func (e *Event) resolve(dt *calendar.EventDateTime, zone *time.Location) (time.Time, error) {
	if dt == nil || (dt.Date == "" && dt.DateTime == "") {
		return time.Time{}, ErrNoDate
	}

	loc := e.local
	if dt.TimeZone != "" {
		l, err := time.LoadLocation(dt.TimeZone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid event time zone %q: %w", dt.TimeZone, err)
		}
		loc = l
	}

	var (
		t   time.Time
		err error
	)
	if dt.DateTime != "" {
		t, err = parseDateTime(dt.DateTime, loc)
		if err == nil && dt.TimeZone != "" {
			t = t.In(loc)
		}
	} else {
		t, err = time.ParseInLocation(dateLayout, dt.Date, loc)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid event time: %w", err)
	}

	if zone != nil {
		t = t.In(zone)
	}
	return t, nil
}

func parseDateTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, loc)
}

// Record is a flattened, serialisable view of an event.
type Record struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Location    string     `json:"location,omitempty" yaml:"location,omitempty"`
	Status      string     `json:"status,omitempty" yaml:"status,omitempty"`
	Start       *time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End         *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
	AllDay      bool       `json:"all_day,omitempty" yaml:"all_day,omitempty"`
	LastUpdate  *time.Time `json:"last_update,omitempty" yaml:"last_update,omitempty"`
	ICalUID     string     `json:"ical_uid,omitempty" yaml:"ical_uid,omitempty"`
	Sequence    int64      `json:"sequence" yaml:"sequence"`
	Organizer   string     `json:"organizer,omitempty" yaml:"organizer,omitempty"`
	Attendees   []Attendee `json:"attendees,omitempty" yaml:"attendees,omitempty"`
	MeetLink    string     `json:"meet_link,omitempty" yaml:"meet_link,omitempty"`
	HTMLLink    string     `json:"html_link,omitempty" yaml:"html_link,omitempty"`
}

// Attendee is one guest of an event.
type Attendee struct {
	Email          string `json:"email" yaml:"email"`
	DisplayName    string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	ResponseStatus string `json:"response_status,omitempty" yaml:"response_status,omitempty"`
	Optional       bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Record flattens the event, with times converted to zone when zone is not
// nil. Missing boundaries are left empty; an unparseable time is an error.
func (e *Event) Record(zone *time.Location) (Record, error) {
	rec := Record{
		ID:          e.ID(),
		Name:        e.Name(),
		Description: e.Description(),
		Location:    e.Location(),
		Status:      e.Status(),
		AllDay:      e.AllDay(),
		ICalUID:     e.ICalUID(),
		Sequence:    e.Sequence(),
		MeetLink:    e.MeetLink(),
		HTMLLink:    e.src.HtmlLink,
	}

	var err error
	if rec.Start, err = optionalTime(e.StartTime(zone)); err != nil {
		return Record{}, fmt.Errorf("event %s start: %w", e.ID(), err)
	}
	if rec.End, err = optionalTime(e.EndTime(zone)); err != nil {
		return Record{}, fmt.Errorf("event %s end: %w", e.ID(), err)
	}
	if e.src.Updated != "" {
		if rec.LastUpdate, err = optionalTime(e.LastUpdate(zone)); err != nil {
			return Record{}, fmt.Errorf("event %s: %w", e.ID(), err)
		}
	}

	if e.src.Organizer != nil {
		rec.Organizer = e.src.Organizer.Email
	}
	for _, att := range e.src.Attendees {
		rec.Attendees = append(rec.Attendees, Attendee{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Optional:       att.Optional,
		})
	}
	return rec, nil
}

// MeetLink returns the video conference entry point of the event, or "".
func (e *Event) MeetLink() string {
	if e.src.ConferenceData != nil {
		for _, ep := range e.src.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				return ep.Uri
			}
		}
	}
	return e.src.HangoutLink
}

func optionalTime(t time.Time, err error) (*time.Time, error) {
	if errors.Is(err, ErrNoDate) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Records flattens events in order.
func Records(events []*Event, zone *time.Location) ([]Record, error) {
	out := make([]Record, 0, len(events))
	for _, ev := range events {
		rec, err := ev.Record(zone)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
