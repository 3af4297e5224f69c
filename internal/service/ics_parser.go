package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/go-resty/resty/v2"

	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/repository"
)

// Timetable import reads standard iCalendar (RFC 5545) exports of a class schedule:
//   - DTSTART fixes the weekday and start time, DTEND or DURATION the end time
//   - a weekly RRULE expands into term week numbers, EXDATE removes single weeks
//   - events without RRULE occupy only their own week
//   - events sharing course + weekday + times are merged into one entry

const (
	icsMaxBytes      = 5 << 20
	icsFetchTimeout  = 30 * time.Second
	defaultTermWeeks = 20
	sourceICS        = "ics"
	weekTypeAll      = "all"
	clockLayout      = "15:04"
	icsDateLayout    = "20060102"
	icsLocalLayout   = "20060102T150405"
	icsUTCLayout     = "20060102T150405Z"
)

var icsDurationRe = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// TermWindow is the teaching period week numbers are counted from. Week 1 starts on Start.
type TermWindow struct {
	Start time.Time
	End   time.Time
}

// Weeks is the number of teaching weeks in the window.
func (w TermWindow) Weeks() int {
	days := int(w.End.Sub(w.Start).Hours()/24) + 1
	weeks := int(math.Ceil(float64(days) / 7.0))
	if weeks < 1 {
		return defaultTermWeeks
	}
	return weeks
}

// week returns the 1-based term week of t, or 0 before the term.
func (w TermWindow) week(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	s := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), 0, 0, 0, 0, time.UTC)
	days := int(d.Sub(s).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days/7 + 1
}

type classSlot struct {
	course    string
	room      string
	dayOfWeek int
	start     string
	end       string
	weeks     []int
}

// ParseTimetableICS converts the calendar into timetable entries of section.
func ParseTimetableICS(r io.Reader, section repository.Section, term TermWindow, loc *time.Location) ([]model.TimetableEntry, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(r, icsMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	total := term.Weeks()

	var slots []classSlot
	for _, evt := range cal.Events() {
		if slot, ok := readSlot(evt, term, total, loc); ok {
			slots = append(slots, slot)
		}
	}

	merged := mergeSlots(slots)
	entries := make([]model.TimetableEntry, 0, len(merged))
	for _, s := range merged {
		sort.Ints(s.weeks)
		entries = append(entries, model.TimetableEntry{
			Branch:     section.Branch,
			Semester:   section.Semester,
			Section:    section.Section,
			CourseName: s.course,
			DayOfWeek:  s.dayOfWeek,
			StartTime:  s.start,
			EndTime:    s.end,
			Weeks:      model.IntArray(s.weeks),
			WeekType:   weekType(s.weeks),
			Room:       s.room,
			Source:     sourceICS,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DayOfWeek != entries[j].DayOfWeek {
			return entries[i].DayOfWeek < entries[j].DayOfWeek
		}
		return entries[i].StartTime < entries[j].StartTime
	})
	return entries, nil
}

// FetchICS downloads a calendar, accepting webcal:// links.
func FetchICS(ctx context.Context, client *resty.Client, rawURL string) ([]byte, error) {
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}
	if client == nil {
		client = resty.New().SetTimeout(icsFetchTimeout)
	}

	resp, err := client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(u)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch calendar: HTTP %d", resp.StatusCode())
	}
	return io.ReadAll(io.LimitReader(body, icsMaxBytes))
}

func readSlot(evt *ics.VEvent, term TermWindow, total int, loc *time.Location) (classSlot, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return classSlot{}, false
	}

	start, err := icsTime(evt.GetProperty(ics.ComponentPropertyDtStart), loc)
	if err != nil {
		return classSlot{}, false
	}
	end, err := icsTime(evt.GetProperty(ics.ComponentPropertyDtEnd), loc)
	if err != nil {
		prop := evt.GetProperty(ics.ComponentPropertyDuration)
		if prop == nil {
			return classSlot{}, false
		}
		d, ok := parseICSDuration(prop.Value)
		if !ok {
			return classSlot{}, false
		}
		end = start.Add(d)
	}

	weeks := expandWeeks(evt, start, term, total, loc)
	if len(weeks) == 0 {
		return classSlot{}, false
	}

	slot := classSlot{
		course:    strings.TrimSpace(summary.Value),
		dayOfWeek: isoWeekday(start.Weekday()),
		start:     start.Format(clockLayout),
		end:       end.Format(clockLayout),
		weeks:     weeks,
	}
	if where := evt.GetProperty(ics.ComponentPropertyLocation); where != nil {
		slot.room = strings.TrimSpace(where.Value)
	}
	return slot, true
}

// expandWeeks lists the term weeks the event occurs in.
func expandWeeks(evt *ics.VEvent, start time.Time, term TermWindow, total int, loc *time.Location) []int {
	prop := evt.GetProperty(ics.ComponentPropertyRrule)
	if prop == nil {
		return singleWeek(start, term, total)
	}
	rule := parseRecurrence(prop.Value)
	if rule.freq != "WEEKLY" {
		return singleWeek(start, term, total)
	}

	skip := exceptionDates(evt, loc)
	limit := term.Start.AddDate(0, 0, total*7)
	if !rule.until.IsZero() && rule.until.Before(limit) {
		limit = rule.until
	}

	seen := make(map[int]bool)
	var weeks []int
	for n, at := 0, start; !at.After(limit); n, at = n+1, at.AddDate(0, 0, 7*rule.interval) {
		if rule.count > 0 && n >= rule.count {
			break
		}
		if skip[at.Format(icsDateLayout)] {
			continue
		}
		if wk := term.week(at); wk >= 1 && wk <= total && !seen[wk] {
			seen[wk] = true
			weeks = append(weeks, wk)
		}
	}
	return weeks
}

func singleWeek(at time.Time, term TermWindow, total int) []int {
	if wk := term.week(at); wk >= 1 && wk <= total {
		return []int{wk}
	}
	return nil
}

type recurrence struct {
	freq     string
	interval int
	count    int
	until    time.Time
}

// parseRecurrence reads the FREQ, INTERVAL, COUNT and UNTIL parts of an RRULE value.
func parseRecurrence(value string) recurrence {
	r := recurrence{interval: 1}
	for _, part := range strings.Split(value, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.ToUpper(k) {
		case "FREQ":
			r.freq = strings.ToUpper(v)
		case "INTERVAL":
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				r.interval = n
			}
		case "COUNT":
			if n, err := strconv.Atoi(v); err == nil {
				r.count = n
			}
		case "UNTIL":
			if t, err := time.Parse(icsUTCLayout, v); err == nil {
				r.until = t
			} else if t, err := time.Parse(icsDateLayout, v); err == nil {
				// a date-only UNTIL includes that whole day
				r.until = t.Add(24*time.Hour - time.Second)
			}
		}
	}
	return r
}

// exceptionDates collects EXDATE values as local calendar days. A property may list several
// comma separated dates.
func exceptionDates(evt *ics.VEvent, loc *time.Location) map[string]bool {
	out := make(map[string]bool)
	for i := range evt.Properties {
		prop := &evt.Properties[i]
		if prop.IANAToken != string(ics.ComponentPropertyExdate) {
			continue
		}
		for _, v := range strings.Split(prop.Value, ",") {
			single := *prop
			single.Value = strings.TrimSpace(v)
			if t, err := icsTime(&single, loc); err == nil {
				out[t.Format(icsDateLayout)] = true
			}
		}
	}
	return out
}

// icsTime parses a DATE or DATE-TIME property, honouring a UTC suffix and TZID.
func icsTime(prop *ics.IANAProperty, loc *time.Location) (time.Time, error) {
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing date property")
	}
	val := strings.TrimSpace(prop.Value)

	if t, err := time.Parse(icsUTCLayout, val); err == nil {
		return t.In(loc), nil
	}

	zone := loc
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			if z, err := time.LoadLocation(v[0]); err == nil {
				zone = z
			}
		}
	}
	for _, layout := range []string{icsLocalLayout, icsDateLayout} {
		if t, err := time.ParseInLocation(layout, val, zone); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", val)
}

// parseICSDuration reads an RFC 5545 duration such as PT1H30M.
func parseICSDuration(v string) (time.Duration, bool) {
	m := icsDurationRe.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil || m[0] == "P" || m[0] == "PT" {
		return 0, false
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		n, _ := strconv.Atoi(m[i+2])
		d += time.Duration(n) * unit
	}
	if m[1] == "-" || d <= 0 {
		return 0, false
	}
	return d, true
}

func mergeSlots(slots []classSlot) []classSlot {
	type key struct {
		course string
		day    int
		start  string
		end    string
	}
	index := make(map[key]int)
	var out []classSlot
	for _, s := range slots {
		k := key{s.course, s.dayOfWeek, s.start, s.end}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, s)
			continue
		}
		cur := &out[i]
		for _, w := range s.weeks {
			if !containsInt(cur.weeks, w) {
				cur.weeks = append(cur.weeks, w)
			}
		}
		if cur.room == "" {
			cur.room = s.room
		}
	}
	return out
}

// weekType is "odd" or "even" when every week has that parity, else "all".
func weekType(weeks []int) string {
	if len(weeks) < 2 {
		return weekTypeAll
	}
	odd, even := true, true
	for _, w := range weeks {
		if w%2 == 0 {
			odd = false
		} else {
			even = false
		}
	}
	switch {
	case odd:
		return "odd"
	case even:
		return "even"
	default:
		return weekTypeAll
	}
}

func isoWeekday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
