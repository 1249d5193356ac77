package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	calendarmodel "github.com/zhouzirui/z-scheduler/backend/internal/model/calendar"
)

// ErrInvalidICal is returned when a payload is not an iCalendar document.
var ErrInvalidICal = errors.New("invalid iCalendar payload")

// Window bounds recurrence expansion.
type Window struct {
	Start time.Time
	End   time.Time
}

// HorizonWindow covers one day back and horizonDays ahead of now.
func HorizonWindow(now time.Time, horizonDays int) Window {
	if horizonDays < 1 {
		horizonDays = 1
	}
	return Window{
		Start: now.AddDate(0, 0, -1),
		End:   now.AddDate(0, 0, horizonDays),
	}
}

// ICSSource is a busy calendar loaded once from an iCalendar file or URL.
type ICSSource struct {
	busy calendarmodel.BusySet
}

// LoadICS reads location (a path or an http(s) URL) and expands its events into busy hours.
func LoadICS(ctx context.Context, location string, window Window) (*ICSSource, error) {
	body, err := readSource(ctx, location)
	if err != nil {
		return nil, err
	}

	busy, err := ParseICS(body, window)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", location, err)
	}

	log.Printf("[calendar] loaded %d busy slots from %s", len(busy), location)
	return &ICSSource{busy: busy}, nil
}

// Busy returns a copy of the loaded busy hours.
func (s *ICSSource) Busy(_ context.Context) (calendarmodel.BusySet, error) {
	return calendarmodel.NewBusySet(s.busy.Sorted()...), nil
}

// ParseICS decodes an iCalendar document and marks every hour touched by an event as busy.
func ParseICS(body string, window Window) (calendarmodel.BusySet, error) {
	if err := validateICalFormat(body); err != nil {
		return nil, err
	}

	busy := calendarmodel.NewBusySet()
	decoder := ical.NewDecoder(strings.NewReader(body))

	for {
		cal, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			if err := addEvent(busy, comp, window); err != nil {
				log.Printf("[calendar] skipping event: %v", err)
			}
		}
	}

	return busy, nil
}

func addEvent(busy calendarmodel.BusySet, comp *ical.Component, window Window) error {
	if status := comp.Props.Get(ical.PropStatus); status != nil && strings.EqualFold(status.Value, "CANCELLED") {
		return nil
	}
	if transp := comp.Props.Get("TRANSP"); transp != nil && strings.EqualFold(transp.Value, "TRANSPARENT") {
		return nil
	}

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return errors.New("missing DTSTART")
	}
	start, err := startProp.DateTime(time.Local)
	if err != nil {
		return fmt.Errorf("DTSTART %q: %w", startProp.Value, err)
	}

	end := start.Add(time.Hour)
	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		if t, err := endProp.DateTime(time.Local); err == nil && t.After(start) {
			end = t
		}
	}
	duration := end.Sub(start)

	if rruleProp := comp.Props.Get(ical.PropRecurrenceRule); rruleProp != nil {
		opt, err := rrule.StrToROption(rruleProp.Value)
		if err != nil {
			return fmt.Errorf("RRULE %q: %w", rruleProp.Value, err)
		}
		opt.Dtstart = start
		rule, err := rrule.NewRRule(*opt)
		if err != nil {
			return fmt.Errorf("RRULE %q: %w", rruleProp.Value, err)
		}
		for _, occurrence := range rule.Between(window.Start, window.End, true) {
			markHours(busy, occurrence, occurrence.Add(duration))
		}
		return nil
	}

	if start.Before(window.End) && end.After(window.Start) {
		markHours(busy, start, end)
	}
	return nil
}

// markHours adds each hour slot starting in [floor(start), end).
func markHours(busy calendarmodel.BusySet, start, end time.Time) {
	start = start.In(time.Local)
	slot := time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), 0, 0, 0, start.Location())
	for {
		busy.Add(slot)
		slot = slot.Add(time.Hour)
		if !slot.Before(end) {
			return
		}
	}
}

func readSource(ctx context.Context, location string) (string, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return "", fmt.Errorf("build calendar request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("calendar source returned %s", resp.Status)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read response body: %w", err)
		}
		return string(body), nil
	}

	body, err := os.ReadFile(location)
	if err != nil {
		return "", fmt.Errorf("read calendar file: %w", err)
	}
	return string(body), nil
}

func validateICalFormat(body string) error {
	trimmed := strings.TrimSpace(body)
	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "<!DOCTYPE") || strings.HasPrefix(upper, "<HTML") {
		return fmt.Errorf("%w: received HTML, check whether the URL requires authentication", ErrInvalidICal)
	}
	if !strings.HasPrefix(upper, "BEGIN:VCALENDAR") {
		preview := trimmed
		if len(preview) > 100 {
			preview = preview[:100]
		}
		return fmt.Errorf("%w: expected BEGIN:VCALENDAR, got %q", ErrInvalidICal, preview)
	}
	return nil
}
