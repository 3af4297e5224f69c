package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"campus-portal/backend/internal/model"
)

// FieldErrors is a field -> message map returned when a JSON payload has the wrong shape.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

// DecodeStrict unmarshals raw into v rejecting unknown fields and trailing data.
func DecodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// ParseSchedule parses an agenda list. Every item needs an activity; an empty or null value
// is an empty agenda.
func ParseSchedule(field string, raw json.RawMessage) ([]model.ScheduleItem, error) {
	items := []model.ScheduleItem{}
	if isNull(raw) {
		return items, nil
	}
	if err := DecodeStrict(raw, &items); err != nil {
		return nil, FieldErrors{field: "must be a list of {time, activity}: " + err.Error()}
	}

	fe := FieldErrors{}
	for i := range items {
		items[i].Time = strings.TrimSpace(items[i].Time)
		items[i].Activity = strings.TrimSpace(items[i].Activity)
		if items[i].Activity == "" {
			fe[fmt.Sprintf("%s[%d].activity", field, i)] = "activity must not be blank"
		}
	}
	if len(fe) > 0 {
		return nil, fe
	}
	return items, nil
}

// ParseExternalLinks parses a link list. Every item needs an absolute http(s) URL.
func ParseExternalLinks(field string, raw json.RawMessage) ([]model.ExternalLink, error) {
	links := []model.ExternalLink{}
	if isNull(raw) {
		return links, nil
	}
	if err := DecodeStrict(raw, &links); err != nil {
		return nil, FieldErrors{field: "must be a list of {title, url}: " + err.Error()}
	}

	fe := FieldErrors{}
	for i := range links {
		links[i].Title = strings.TrimSpace(links[i].Title)
		links[i].URL = strings.TrimSpace(links[i].URL)
		u, err := url.Parse(links[i].URL)
		if links[i].URL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fe[fmt.Sprintf("%s[%d].url", field, i)] = "url must be an absolute http(s) URL"
		}
	}
	if len(fe) > 0 {
		return nil, fe
	}
	return links, nil
}

// ParseURLList parses a list of previously issued media URLs.
func ParseURLList(field string, raw json.RawMessage) ([]string, error) {
	urls := []string{}
	if isNull(raw) {
		return urls, nil
	}
	if err := DecodeStrict(raw, &urls); err != nil {
		return nil, FieldErrors{field: "must be a list of strings"}
	}
	return urls, nil
}

func isNull(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	return len(s) == 0 || bytes.Equal(s, []byte("null"))
}
