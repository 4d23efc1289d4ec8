package model

import (
	"encoding/json"
	"strings"
)

// AlertRequest is the body of POST /api/alert.
type AlertRequest struct {
	Reason                 string     `json:"reason"`
	When                   Timestamp  `json:"when"`
	Contacts               []Contact  `json:"contacts"`
	Message                string     `json:"message"`
	IncludeScheduleInAlert *bool      `json:"includeScheduleInAlert,omitempty"` // nil means true
	Schedules              []Schedule `json:"schedules"`
}

// UnmarshalJSON fails only when the body is not an object. Members of the
// wrong type are ignored so that one odd contact or schedule never blocks
// the alert.
func (r *AlertRequest) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	f, err := objectFields(b)
	if err != nil {
		return err
	}
	*r = AlertRequest{
		Reason:  f.text("reason"),
		When:    Timestamp(f.text("when")),
		Message: f.text("message"),
	}
	var include *bool
	if json.Unmarshal(f["includeScheduleInAlert"], &include) == nil && include != nil {
		r.IncludeScheduleInAlert = include
	}

	contacts, _ := f.list("contacts")
	for _, raw := range contacts {
		var c Contact
		_ = c.UnmarshalJSON(raw)
		r.Contacts = append(r.Contacts, c)
	}
	schedules, _ := f.list("schedules")
	for _, raw := range schedules {
		var s Schedule
		_ = s.UnmarshalJSON(raw)
		r.Schedules = append(r.Schedules, s)
	}
	return nil
}

// IncludeSchedules resolves the optional flag.
func (r *AlertRequest) IncludeSchedules() bool {
	return r.IncludeScheduleInAlert == nil || *r.IncludeScheduleInAlert
}

// Recipients returns the trimmed email addresses in input order.
func (r *AlertRequest) Recipients() []string {
	var emails []string
	for _, c := range r.Contacts {
		if !c.IsEmail() {
			continue
		}
		emails = append(emails, strings.TrimSpace(c.Value))
	}
	return emails
}

// NewAlertRequest builds the alert for the stored document.
func NewAlertRequest(data *AppData, reason string, when Timestamp) *AlertRequest {
	include := data.Settings.IncludeScheduleInAlert
	return &AlertRequest{
		Reason:                 reason,
		When:                   when,
		Contacts:               data.Contacts,
		Message:                data.Settings.AlertMessage,
		IncludeScheduleInAlert: &include,
		Schedules:              data.Schedules,
	}
}
