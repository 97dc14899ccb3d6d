package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"meetup-api/internal/policy"
	"meetup-api/internal/services"
	"meetup-api/internal/status"
	"meetup-api/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
)

type actor = policy.Actor

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a valid date", status.ErrInvalid, value)
}

// parseUpperBound reads an inclusive upper date bound. A bare date covers the
// whole day, up to its last microsecond.
func parseUpperBound(value string) (time.Time, error) {
	t, err := parseDate(value)
	if err != nil {
		return t, err
	}
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(value)); err == nil {
		t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
	}
	return t, nil
}

func badBody(err error) error {
	return fmt.Errorf("%w: %v", status.ErrInvalid, err)
}

// parsePage reads the 1-based page query parameter.
func parsePage(values url.Values) (int, error) {
	raw := values.Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("%w: invalid page", status.ErrNotFound)
	}
	return page, nil
}

func parseEventQuery(values url.Values) (models.EventQuery, error) {
	q := models.EventQuery{
		TagName:  strings.TrimSpace(values.Get("tags_name")),
		Search:   strings.TrimSpace(values.Get("search")),
		Ordering: strings.TrimSpace(values.Get("ordering")),
	}
	if raw := values.Get("read_time"); raw != "" {
		readTime, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("%w: read_time must be an integer", status.ErrInvalid)
		}
		q.ReadTime = &readTime
	}
	if raw := values.Get("event_date_after"); raw != "" {
		after, err := parseDate(raw)
		if err != nil {
			return q, err
		}
		q.DateAfter = &after
	}
	if raw := values.Get("event_date_before"); raw != "" {
		before, err := parseUpperBound(raw)
		if err != nil {
			return q, err
		}
		q.DateBefore = &before
	}
	return q, nil
}

func parseSessionQuery(values url.Values) models.SessionQuery {
	return models.SessionQuery{
		Search:   strings.TrimSpace(values.Get("search")),
		Ordering: strings.TrimSpace(values.Get("ordering")),
	}
}

type eventRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	EventDate   *string          `json:"event_date"`
	TotalGuest  *int             `json:"total_guest"`
	Tags        []string         `json:"tags"`
	Geom        *models.GeoPoint `json:"geom"`
}

func (r eventRequest) toInput() (services.EventInput, error) {
	in := services.EventInput{
		Title:       r.Title,
		Description: r.Description,
		TotalGuest:  r.TotalGuest,
		Tags:        r.Tags,
		Geom:        r.Geom,
	}
	if r.EventDate != nil {
		date, err := parseDate(*r.EventDate)
		if err != nil {
			return in, err
		}
		in.EventDate = &date
	}
	return in, nil
}

// bindEvent reads an event body from JSON or from a multipart form carrying a cover image.
func bindEvent(e *core.RequestEvent) (services.EventInput, error) {
	if !strings.HasPrefix(e.Request.Header.Get("Content-Type"), "multipart/form-data") {
		var req eventRequest
		if err := e.BindBody(&req); err != nil {
			return services.EventInput{}, badBody(err)
		}
		return req.toInput()
	}

	files, err := e.FindUploadedFiles("cover")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		return services.EventInput{}, fmt.Errorf("%w: cover: %v", status.ErrInvalid, err)
	}

	if e.Request.MultipartForm == nil {
		return services.EventInput{}, fmt.Errorf("%w: malformed multipart body", status.ErrInvalid)
	}
	req, err := eventRequestFromForm(e.Request.MultipartForm.Value)
	if err != nil {
		return services.EventInput{}, err
	}
	in, err := req.toInput()
	if err != nil {
		return in, err
	}
	if len(files) > 0 {
		in.Cover = files[0]
	}
	return in, nil
}

func eventRequestFromForm(form map[string][]string) (eventRequest, error) {
	var req eventRequest
	field := func(name string) *string {
		if values, ok := form[name]; ok && len(values) > 0 {
			return &values[0]
		}
		return nil
	}

	req.Title = field("title")
	req.Description = field("description")
	req.EventDate = field("event_date")
	if raw := field("total_guest"); raw != nil {
		total, err := strconv.Atoi(*raw)
		if err != nil {
			return req, fmt.Errorf("%w: total_guest must be an integer", status.ErrInvalid)
		}
		req.TotalGuest = &total
	}
	if tags, ok := form["tags"]; ok {
		req.Tags = tags
	}
	if raw := field("geom"); raw != nil && *raw != "" {
		var geom models.GeoPoint
		if err := json.Unmarshal([]byte(*raw), &geom); err != nil {
			return req, fmt.Errorf("%w: geom field should be json", status.ErrInvalid)
		}
		req.Geom = &geom
	}
	return req, nil
}

type sessionRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Type        *string `json:"session_type"`
}

func (r sessionRequest) toInput() services.SessionInput {
	return services.SessionInput{Title: r.Title, Description: r.Description, Type: r.Type}
}

type sessionSettingRequest struct {
	Status string `json:"status"`
}

func (r sessionSettingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required),
	)
}

type attendeeSettingRequest struct {
	Usernames []string `json:"list_of_username"`
}

func (r attendeeSettingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Usernames, validation.NotNil, validation.Each(validation.Required)),
	)
}

type organizerSettingRequest struct {
	Usernames []string `json:"list_of_username"`
	Action    string   `json:"action"`
}

func (r organizerSettingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Usernames, validation.NotNil, validation.Each(validation.Required)),
		validation.Field(&r.Action, validation.Required),
	)
}

type profileRequest struct {
	Name        *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
}

func bindProfile(e *core.RequestEvent) (services.UserInput, error) {
	var in services.UserInput
	if strings.HasPrefix(e.Request.Header.Get("Content-Type"), "multipart/form-data") {
		files, err := e.FindUploadedFiles("picture")
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			return in, fmt.Errorf("%w: picture: %v", status.ErrInvalid, err)
		}
		if len(files) > 0 {
			in.Avatar = files[0]
		}
		if e.Request.MultipartForm == nil {
			return in, fmt.Errorf("%w: malformed multipart body", status.ErrInvalid)
		}
		form := e.Request.MultipartForm.Value
		if v, ok := form["full_name"]; ok && len(v) > 0 {
			in.Name = &v[0]
		}
		if v, ok := form["phone_number"]; ok && len(v) > 0 {
			in.PhoneNumber = &v[0]
		}
		return in, nil
	}

	var req profileRequest
	if err := e.BindBody(&req); err != nil {
		return in, badBody(err)
	}
	in.Name, in.PhoneNumber = req.Name, req.PhoneNumber
	return in, nil
}
