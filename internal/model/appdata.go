package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DataKey is the single key the AppData document lives under.
const DataKey = "sos_data_v1"

// ContactEmail is the only contact type that receives alerts.
const ContactEmail = "email"

// Timestamp is a deadline as the client wrote it. Numbers are kept as
// their decimal text; the containing object writes them back as numbers.
type Timestamp string

type Schedule struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	LastSafeDeadline Timestamp `json:"lastSafeDeadline"`
	Location         string    `json:"location,omitempty"`
	People           string    `json:"people,omitempty"`
	Notes            string    `json:"notes,omitempty"`

	src *origin
}

type plainSchedule Schedule

// UnmarshalJSON never fails: scalars of any type are read as text and
// anything else is left empty.
func (s *Schedule) UnmarshalJSON(b []byte) error {
	*s = Schedule{}
	if f, err := objectFields(b); err == nil {
		*s = Schedule{
			ID:               f.text("id"),
			Title:            f.text("title"),
			LastSafeDeadline: Timestamp(f.text("lastSafeDeadline")),
			Location:         f.text("location"),
			People:           f.text("people"),
			Notes:            f.text("notes"),
		}
	}
	s.src = newOrigin(b, plainSchedule(*s))
	return nil
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	return s.src.encode(plainSchedule(s))
}

type Contact struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value string `json:"value"`

	src *origin
}

type plainContact Contact

// UnmarshalJSON never fails. Type and value are only taken when they are
// strings, so a contact with any other value never qualifies for mail.
func (c *Contact) UnmarshalJSON(b []byte) error {
	*c = Contact{}
	if f, err := objectFields(b); err == nil {
		*c = Contact{ID: f.text("id"), Type: f.str("type"), Value: f.str("value")}
	}
	c.src = newOrigin(b, plainContact(*c))
	return nil
}

func (c Contact) MarshalJSON() ([]byte, error) {
	return c.src.encode(plainContact(c))
}

type Settings struct {
	IncludeScheduleInAlert bool   `json:"includeScheduleInAlert"`
	SafeCode               string `json:"safeCode"`
	DangerCode             string `json:"dangerCode"`
	TrustNoMistype         bool   `json:"trustNoMistype"`
	AlertMessage           string `json:"alertMessage"`
	TotpSecret             string `json:"totpSecret"`
	LastSafeAt             int64  `json:"lastSafeAt"` // epoch millis

	src *origin
}

type plainSettings Settings

// UnmarshalJSON merges the stored members over DefaultSettings.
func (s *Settings) UnmarshalJSON(b []byte) error {
	f, err := objectFields(b)
	if err != nil {
		return err
	}
	def := DefaultSettings()
	*s = Settings{
		IncludeScheduleInAlert: f.boolean("includeScheduleInAlert", def.IncludeScheduleInAlert),
		SafeCode:               f.text("safeCode"),
		DangerCode:             f.text("dangerCode"),
		TrustNoMistype:         f.boolean("trustNoMistype", def.TrustNoMistype),
		AlertMessage:           f.text("alertMessage"),
		TotpSecret:             f.text("totpSecret"),
		LastSafeAt:             f.millis("lastSafeAt", def.LastSafeAt),
	}
	s.src = newOrigin(b, plainSettings(*s))
	return nil
}

func (s Settings) MarshalJSON() ([]byte, error) {
	return s.src.encode(plainSettings(s))
}

type AppData struct {
	Schedules []Schedule `json:"schedules"`
	Contacts  []Contact  `json:"contacts"`
	Settings  Settings   `json:"settings"`

	src *origin
}

type plainAppData AppData

// UnmarshalJSON fails only when the document, its lists or its settings
// have the wrong shape. Members the model does not know are written back
// on the next marshal.
func (d *AppData) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	f, err := objectFields(b)
	if err != nil {
		return err
	}
	out := AppData{Schedules: []Schedule{}, Contacts: []Contact{}, Settings: DefaultSettings()}

	items, err := f.list("schedules")
	if err != nil {
		return err
	}
	for _, raw := range items {
		var s Schedule
		_ = s.UnmarshalJSON(raw)
		out.Schedules = append(out.Schedules, s)
	}

	items, err = f.list("contacts")
	if err != nil {
		return err
	}
	for _, raw := range items {
		var c Contact
		_ = c.UnmarshalJSON(raw)
		out.Contacts = append(out.Contacts, c)
	}

	if raw, ok := f["settings"]; ok && !isNull(raw) {
		if err := out.Settings.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
	}

	out.src = newOrigin(b, plainAppData(out))
	*d = out
	return nil
}

func (d AppData) MarshalJSON() ([]byte, error) {
	return d.src.encode(plainAppData(d))
}

func DefaultSettings() Settings {
	return Settings{IncludeScheduleInAlert: true}
}

func DefaultAppData() *AppData {
	return &AppData{
		Schedules: []Schedule{},
		Contacts:  []Contact{},
		Settings:  DefaultSettings(),
	}
}

// DecodeAppData parses a stored document. Stored settings are merged over
// the defaults and missing lists come back empty, never nil.
func DecodeAppData(raw []byte) (*AppData, error) {
	data := DefaultAppData()
	if len(bytes.TrimSpace(raw)) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal app data: %w", err)
	}
	return data, nil
}

// UpsertSchedule replaces the schedule with the same id or appends it.
// Members of the replaced schedule the model does not know are kept.
func (d *AppData) UpsertSchedule(s Schedule) {
	for i := range d.Schedules {
		if d.Schedules[i].ID == s.ID {
			if s.src == nil {
				s.src = d.Schedules[i].src
			}
			d.Schedules[i] = s
			return
		}
	}
	d.Schedules = append(d.Schedules, s)
}

func (d *AppData) DeleteSchedule(id string) {
	kept := d.Schedules[:0]
	for _, s := range d.Schedules {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	d.Schedules = kept
}

func (d *AppData) RemoveContact(id string) {
	kept := d.Contacts[:0]
	for _, c := range d.Contacts {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	d.Contacts = kept
}

// SettingsPatch overwrites only the fields that are set.
type SettingsPatch struct {
	IncludeScheduleInAlert *bool
	SafeCode               *string
	DangerCode             *string
	TrustNoMistype         *bool
	AlertMessage           *string
	TotpSecret             *string
	LastSafeAt             *int64
}

func (p SettingsPatch) Apply(s *Settings) {
	if p.IncludeScheduleInAlert != nil {
		s.IncludeScheduleInAlert = *p.IncludeScheduleInAlert
	}
	if p.SafeCode != nil {
		s.SafeCode = *p.SafeCode
	}
	if p.DangerCode != nil {
		s.DangerCode = *p.DangerCode
	}
	if p.TrustNoMistype != nil {
		s.TrustNoMistype = *p.TrustNoMistype
	}
	if p.AlertMessage != nil {
		s.AlertMessage = *p.AlertMessage
	}
	if p.TotpSecret != nil {
		s.TotpSecret = *p.TotpSecret
	}
	if p.LastSafeAt != nil {
		s.LastSafeAt = *p.LastSafeAt
	}
}

// IsEmail reports whether the contact can receive alert mail.
func (c Contact) IsEmail() bool {
	return c.Type == ContactEmail && strings.TrimSpace(c.Value) != ""
}
