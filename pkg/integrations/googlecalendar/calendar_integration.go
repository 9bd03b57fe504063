// Package googlecalendar wraps the Google Calendar v3 API for scheduling
// actions: creating events, listing upcoming ones and free/busy checks.
package googlecalendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/prodpilot/prodpilot/internal/domain"
)

const primaryCalendar = "primary"

type CreateEventParams struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Attendees   []string `json:"attendees"`
	Location    string   `json:"location"`
}

type Event struct {
	EventID     string   `json:"eventId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	Attendees   []string `json:"attendees"`
	Location    string   `json:"location"`
	HTMLLink    string   `json:"htmlLink"`
	Status      string   `json:"status"`
}

type ListUpcomingParams struct {
	Days       int
	MaxResults int
}

type EventList struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
}

type AvailabilityParams struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type BusySlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Availability struct {
	StartTime      string     `json:"startTime"`
	EndTime        string     `json:"endTime"`
	BusySlots      []BusySlot `json:"busySlots"`
	TotalBusySlots int        `json:"totalBusySlots"`
}

type CalendarIntegration struct {
	cred domain.GoogleCredential
	cfg  domain.GoogleConfig
}

type CalendarIntegrationDependencies struct {
	Credential domain.GoogleCredential
	Config     domain.GoogleConfig
}

func NewCalendarIntegration(deps CalendarIntegrationDependencies) *CalendarIntegration {
	return &CalendarIntegration{cred: deps.Credential, cfg: deps.Config}
}

// CreateEvent inserts an event into the primary calendar.
func (i *CalendarIntegration) CreateEvent(ctx context.Context, p CreateEventParams) (*Event, error) {
	svc, err := i.service(ctx)
	if err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:     p.Title,
		Description: p.Description,
		Start:       &calendar.EventDateTime{DateTime: p.StartTime, TimeZone: "UTC"},
		End:         &calendar.EventDateTime{DateTime: p.EndTime, TimeZone: "UTC"},
		Location:    p.Location,
	}
	for _, email := range p.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := svc.Events.Insert(primaryCalendar, event).Context(ctx).Do()
	if err != nil {
		return nil, wrapCalendarError(err)
	}

	result := eventFromAPI(created)
	result.Status = "confirmed"
	return &result, nil
}

// ListUpcoming returns events between now and now+days, expanded to single
// occurrences and ordered by start time.
func (i *CalendarIntegration) ListUpcoming(ctx context.Context, p ListUpcomingParams) (*EventList, error) {
	svc, err := i.service(ctx)
	if err != nil {
		return nil, err
	}

	days := p.Days
	if days <= 0 {
		days = 7
	}
	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	now := time.Now().UTC()
	list, err := svc.Events.List(primaryCalendar).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.Add(time.Duration(days) * 24 * time.Hour).Format(time.RFC3339)).
		MaxResults(int64(maxResults)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, wrapCalendarError(err)
	}

	events := make([]Event, 0, len(list.Items))
	for _, item := range list.Items {
		e := eventFromAPI(item)
		if e.Title == "" {
			e.Title = "(No title)"
		}
		if e.Status == "" {
			e.Status = "confirmed"
		}
		events = append(events, e)
	}

	return &EventList{Events: events, Total: len(events)}, nil
}

// CheckAvailability runs a free/busy query over the primary calendar.
func (i *CalendarIntegration) CheckAvailability(ctx context.Context, p AvailabilityParams) (*Availability, error) {
	svc, err := i.service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: p.StartTime,
		TimeMax: p.EndTime,
		Items:   []*calendar.FreeBusyRequestItem{{Id: primaryCalendar}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrapCalendarError(err)
	}

	busy := []BusySlot{}
	if cal, ok := resp.Calendars[primaryCalendar]; ok {
		for _, period := range cal.Busy {
			busy = append(busy, BusySlot{Start: period.Start, End: period.End})
		}
	}

	return &Availability{
		StartTime:      p.StartTime,
		EndTime:        p.EndTime,
		BusySlots:      busy,
		TotalBusySlots: len(busy),
	}, nil
}

// TestConnection probes the calendar settings list, the cheapest call that
// requires a valid token.
func (i *CalendarIntegration) TestConnection(ctx context.Context) (bool, error) {
	svc, err := i.service(ctx)
	if err != nil {
		return false, err
	}

	if _, err := svc.Settings.List().MaxResults(1).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("calendar connection test failed: %w", wrapCalendarError(err))
	}
	return true, nil
}

func (i *CalendarIntegration) service(ctx context.Context) (*calendar.Service, error) {
	token, err := i.accessToken()
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})),
	}
	if i.cfg.CalendarEndpoint != "" {
		opts = append(opts, option.WithEndpoint(i.cfg.CalendarEndpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar service: %w", err)
	}
	return svc, nil
}

func (i *CalendarIntegration) accessToken() (string, error) {
	switch c := i.cred.(type) {
	case domain.GoogleOAuthCredential:
		if c.AccessToken == "" {
			return "", domain.ErrNotConnected
		}
		return c.AccessToken, nil
	case domain.GoogleStaticCredential:
		if c.AccessToken == "" {
			return "", domain.ErrNotConnected
		}
		return c.AccessToken, nil
	default:
		return "", domain.ErrNotConnected
	}
}

func eventFromAPI(e *calendar.Event) Event {
	attendees := make([]string, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		attendees = append(attendees, a.Email)
	}

	return Event{
		EventID:     e.Id,
		Title:       e.Summary,
		Description: e.Description,
		StartTime:   eventTime(e.Start),
		EndTime:     eventTime(e.End),
		Attendees:   attendees,
		Location:    e.Location,
		HTMLLink:    e.HtmlLink,
		Status:      e.Status,
	}
}

func eventTime(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.DateTime != "" {
		return dt.DateTime
	}
	return dt.Date
}

func wrapCalendarError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &domain.UpstreamAPIError{
			Provider: domain.ProviderGoogle,
			Status:   apiErr.Code,
			Body:     apiErr.Message,
		}
	}
	return fmt.Errorf("calendar request failed: %w", err)
}
