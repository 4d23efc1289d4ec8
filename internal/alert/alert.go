package alert

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/noahxzhu/lighthouse/internal/model"
)

//go:embed templates/*
var templateFS embed.FS

var (
	textTmpl = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/alert.txt.tmpl"))
	htmlTmpl = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/alert.html.tmpl"))
)

const (
	unknownReason = "unknown"
	untitled      = "Untitled"

	// Same layout as JavaScript's Date.toISOString.
	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

type Entry struct {
	Index    int
	Title    string
	Deadline string
	Location string
	People   string
	Notes    string
}

// Report is the view model both renderings are built from.
type Report struct {
	Reason    string
	When      string
	Message   string
	Schedules []Entry
}

// Content is a rendered alert.
type Content struct {
	Text string
	HTML string
}

func NewReport(req *model.AlertRequest, now time.Time) Report {
	r := Report{
		Reason:  req.Reason,
		When:    string(req.When),
		Message: req.Message,
	}
	if r.Reason == "" {
		r.Reason = unknownReason
	}
	if r.When == "" {
		r.When = now.UTC().Format(isoMillis)
	}
	if req.IncludeSchedules() {
		for i, s := range req.Schedules {
			e := Entry{
				Index:    i + 1,
				Title:    s.Title,
				Deadline: string(s.LastSafeDeadline),
				Location: s.Location,
				People:   s.People,
				Notes:    s.Notes,
			}
			if e.Title == "" {
				e.Title = untitled
			}
			r.Schedules = append(r.Schedules, e)
		}
	}
	return r
}

// Compose renders the plain-text and HTML bodies for req.
func Compose(req *model.AlertRequest, now time.Time) (*Content, error) {
	report := NewReport(req, now)

	var text bytes.Buffer
	if err := textTmpl.Execute(&text, report); err != nil {
		return nil, fmt.Errorf("render text alert: %w", err)
	}
	var html bytes.Buffer
	if err := htmlTmpl.Execute(&html, report); err != nil {
		return nil, fmt.Errorf("render html alert: %w", err)
	}

	return &Content{
		Text: strings.TrimRight(text.String(), "\n"),
		HTML: html.String(),
	}, nil
}
