package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() Message {
	return Message{
		To:      []string{"a@b.com", "c@d.org"},
		From:    Address{Email: "noreply@example.com", Name: "Save Our Souls"},
		Subject: "SOS",
		Text:    "plain",
		HTML:    "<p>html</p>",
	}
}

func TestSend_Payload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, DKIM{}, time.Second)
	require.NoError(t, c.Send(context.Background(), testMessage()))

	p := got["personalizations"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{
		map[string]any{"email": "a@b.com"},
		map[string]any{"email": "c@d.org"},
	}, p["to"])
	assert.NotContains(t, p, "dkim_domain")
	assert.Equal(t, map[string]any{"email": "noreply@example.com", "name": "Save Our Souls"}, got["from"])
	assert.Equal(t, "SOS", got["subject"])
	assert.Equal(t, []any{
		map[string]any{"type": "text/plain", "value": "plain"},
		map[string]any{"type": "text/html", "value": "<p>html</p>"},
	}, got["content"])
}

func TestBuildPayload_DKIM(t *testing.T) {
	full := NewClient("", DKIM{Domain: "example.com", Selector: "mc", PrivateKey: "key"}, time.Second)
	p := full.buildPayload(testMessage()).Personalizations[0]
	assert.Equal(t, "example.com", p.DKIMDomain)
	assert.Equal(t, "mc", p.DKIMSelector)
	assert.Equal(t, "key", p.DKIMPrivateKey)
	assert.Equal(t, DefaultAPIURL, full.APIURL)

	partial := NewClient("", DKIM{Domain: "example.com", Selector: "mc"}, time.Second)
	p = partial.buildPayload(testMessage()).Personalizations[0]
	assert.Empty(t, p.DKIMDomain)
	assert.Empty(t, p.DKIMPrivateKey)
}

func TestSend_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "domain not authorized")
	}))
	defer srv.Close()

	err := NewClient(srv.URL, DKIM{}, time.Second).Send(context.Background(), testMessage())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "domain not authorized", apiErr.Body)
}

func TestSend_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(url, DKIM{}, time.Second).Send(context.Background(), testMessage())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
