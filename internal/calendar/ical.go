package calendar

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// ProductID identifies gcalauth as the producer of exported calendars.
const ProductID = "-//teemow//gcalauth//EN"

// WriteICS writes events to w as an iCalendar document. Events without a
// start are skipped. The event's iCalendar UID is used as UID, falling back
// to the API event ID.
func WriteICS(w io.Writer, events []*Event) error {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)

	for _, ev := range events {
		start, err := ev.StartTime(time.UTC)
		if errors.Is(err, ErrNoDate) {
			continue
		}
		if err != nil {
			return fmt.Errorf("event %s: %w", ev.ID(), err)
		}

		uid := ev.ICalUID()
		if uid == "" {
			uid = ev.ID()
		}
		vev := cal.AddEvent(uid)

		if ev.AllDay() {
			// All-day dates are calendar days, not instants.
			day, _ := ev.StartTime(nil)
			vev.SetAllDayStartAt(day)
			if end, err := ev.EndTime(nil); err == nil {
				vev.SetAllDayEndAt(end)
			}
		} else {
			vev.SetStartAt(start)
			if end, err := ev.EndTime(time.UTC); err == nil {
				vev.SetEndAt(end)
			}
		}

		stamp := time.Now().UTC()
		if updated, err := ev.LastUpdate(time.UTC); err == nil {
			stamp = updated
			vev.SetModifiedAt(updated)
		}
		vev.SetDtStampTime(stamp)

		if ev.Name() != "" {
			vev.SetSummary(ev.Name())
		}
		if ev.Description() != "" {
			vev.SetDescription(ev.Description())
		}
		if ev.Location() != "" {
			vev.SetLocation(ev.Location())
		}
		if ev.Status() != "" {
			vev.SetProperty(ical.ComponentPropertyStatus, strings.ToUpper(ev.Status()))
		}
		if link := ev.Source().HtmlLink; link != "" {
			vev.SetProperty(ical.ComponentPropertyUrl, link)
		}
		vev.SetProperty(ical.ComponentPropertySequence, strconv.FormatInt(ev.Sequence(), 10))
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}
