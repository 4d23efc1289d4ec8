package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultAPIURL = "https://api.mailchannels.net/tx/v1/send"

// DKIM signing credentials. Used only when all three are set.
type DKIM struct {
	Domain     string
	Selector   string
	PrivateKey string
}

func (d DKIM) complete() bool {
	return d.Domain != "" && d.Selector != "" && d.PrivateKey != ""
}

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is one alert mail to a list of recipients.
type Message struct {
	To      []string
	From    Address
	Subject string
	Text    string
	HTML    string
}

type personalization struct {
	To             []Address `json:"to"`
	DKIMDomain     string    `json:"dkim_domain,omitempty"`
	DKIMSelector   string    `json:"dkim_selector,omitempty"`
	DKIMPrivateKey string    `json:"dkim_private_key,omitempty"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type payload struct {
	Personalizations []personalization `json:"personalizations"`
	From             Address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// APIError is a non-2xx answer from the mail API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mail api error: status %d, body %s", e.StatusCode, e.Body)
}

// Client talks to a MailChannels-compatible transactional mail API.
type Client struct {
	APIURL     string
	DKIM       DKIM
	HTTPClient *http.Client
}

func NewClient(apiURL string, dkim DKIM, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		APIURL:     apiURL,
		DKIM:       dkim,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) buildPayload(msg Message) payload {
	p := personalization{To: make([]Address, 0, len(msg.To))}
	for _, to := range msg.To {
		p.To = append(p.To, Address{Email: to})
	}
	if c.DKIM.complete() {
		p.DKIMDomain = c.DKIM.Domain
		p.DKIMSelector = c.DKIM.Selector
		p.DKIMPrivateKey = c.DKIM.PrivateKey
	}
	return payload{
		Personalizations: []personalization{p},
		From:             msg.From,
		Subject:          msg.Subject,
		Content: []content{
			{Type: "text/plain", Value: msg.Text},
			{Type: "text/html", Value: msg.HTML},
		},
	}
}

// Send posts msg once. A non-2xx answer is returned as *APIError.
func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(c.buildPayload(msg))
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(detail)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
