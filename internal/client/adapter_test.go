package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noahxzhu/lighthouse/internal/mailer"
	"github.com/noahxzhu/lighthouse/internal/model"
	"github.com/noahxzhu/lighthouse/internal/storage"
	"github.com/noahxzhu/lighthouse/internal/web"
)

type recordingSender struct {
	sent []mailer.Message
}

func (r *recordingSender) Send(ctx context.Context, msg mailer.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

// newAPI runs the real HTTP API over an in-memory store.
func newAPI(t *testing.T, token string) (*httptest.Server, storage.Store, *recordingSender) {
	t.Helper()
	store := storage.NewMemoryStore()
	sender := &recordingSender{}
	srv, err := web.NewServer(store, sender, web.Options{
		AuthToken: token,
		DataKey:   model.DataKey,
		Subject:   "SOS",
	}, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, store, sender
}

func newLocal(t *testing.T) *Local {
	t.Helper()
	fs, err := storage.NewFileStore(filepath.Join(t.TempDir(), "local.json"))
	require.NoError(t, err)
	return NewLocal(fs, model.DataKey, zap.NewNop())
}

func TestAdapter_LocalOnly(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(nil, newLocal(t), zap.NewNop())
	assert.False(t, a.RemoteEnabled())

	data, err := a.GetData(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAppData(), data)

	_, err = a.UpsertSchedule(ctx, model.Schedule{ID: "s1", Title: "Hike", LastSafeDeadline: "2025-01-01T10:00"})
	require.NoError(t, err)
	_, err = a.UpsertSchedule(ctx, model.Schedule{ID: "s1", Title: "Night hike"})
	require.NoError(t, err)
	data, err = a.AddContact(ctx, model.Contact{Type: "email", Value: "a@b.com"})
	require.NoError(t, err)

	require.Len(t, data.Schedules, 1)
	assert.Equal(t, "Night hike", data.Schedules[0].Title)
	require.Len(t, data.Contacts, 1)
	assert.NotEmpty(t, data.Contacts[0].ID)

	code := "1234"
	data, err = a.SetSettings(ctx, model.SettingsPatch{SafeCode: &code})
	require.NoError(t, err)
	assert.Equal(t, "1234", data.Settings.SafeCode)
	assert.True(t, data.Settings.IncludeScheduleInAlert)

	data, err = a.RemoveContact(ctx, data.Contacts[0].ID)
	require.NoError(t, err)
	assert.Empty(t, data.Contacts)

	data, err = a.DeleteSchedule(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, data.Schedules)

	reloaded, err := a.GetData(ctx)
	require.NoError(t, err)
	want, err := json.Marshal(data)
	require.NoError(t, err)
	got, err := json.Marshal(reloaded)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestAdapter_RemoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	ts, store, _ := newAPI(t, "tok")
	local := newLocal(t)
	a := NewAdapter(NewRemote(ts.URL+"/", "tok"), local, zap.NewNop())

	_, err := a.UpsertSchedule(ctx, model.Schedule{ID: "s1", Title: "Dive"})
	require.NoError(t, err)

	raw, err := store.Get(ctx, model.DataKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"title":"Dive"`)

	// the local copy is kept in sync
	assert.Equal(t, "Dive", local.Load(ctx).Schedules[0].Title)

	data, err := a.GetData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Schedules, 1)
}

func TestAdapter_FallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	ts, _, _ := newAPI(t, "tok")
	local := newLocal(t)
	require.NoError(t, local.Save(ctx, &model.AppData{
		Schedules: []model.Schedule{{ID: "local"}},
		Contacts:  []model.Contact{},
		Settings:  model.DefaultSettings(),
	}))

	// wrong token: every remote call is rejected
	a := NewAdapter(NewRemote(ts.URL, "bad"), local, zap.NewNop())

	data, err := a.GetData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Schedules, 1)
	assert.Equal(t, "local", data.Schedules[0].ID)

	data, err = a.UpsertSchedule(ctx, model.Schedule{ID: "second"})
	require.NoError(t, err, "remote save failure is not surfaced")
	assert.Len(t, data.Schedules, 2)
	assert.Len(t, local.Load(ctx).Schedules, 2)
}

func TestAdapter_KeepsLooselyTypedRemoteData(t *testing.T) {
	ctx := context.Background()
	ts, store, _ := newAPI(t, "")
	require.NoError(t, store.Put(ctx, model.DataKey, []byte(`{
		"schedules":[{"id":42,"title":"Hike","lastSafeDeadline":1735787040000,"createdAt":123}],
		"contacts":[{"id":"c","type":"email","value":"a@b.com"}],
		"settings":{"safeCode":"1","theme":"dark"}
	}`)))
	a := NewAdapter(NewRemote(ts.URL, ""), newLocal(t), zap.NewNop())

	data, err := a.AddContact(ctx, model.Contact{Type: model.ContactEmail, Value: "x@y.com"})
	require.NoError(t, err)
	require.Len(t, data.Schedules, 1)
	assert.Equal(t, "42", data.Schedules[0].ID)

	raw, err := store.Get(ctx, model.DataKey)
	require.NoError(t, err)
	var stored struct {
		Schedules []map[string]any `json:"schedules"`
		Contacts  []map[string]any `json:"contacts"`
		Settings  map[string]any   `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored.Schedules, 1)
	assert.Equal(t, map[string]any{
		"id": 42.0, "title": "Hike", "lastSafeDeadline": 1735787040000.0, "createdAt": 123.0,
	}, stored.Schedules[0])
	require.Len(t, stored.Contacts, 2)
	assert.Equal(t, "c", stored.Contacts[0]["id"])
	assert.Equal(t, "x@y.com", stored.Contacts[1]["value"])
	assert.Equal(t, "dark", stored.Settings["theme"])

	_, err = a.DeleteSchedule(ctx, "42")
	require.NoError(t, err)
	raw, err = store.Get(ctx, model.DataKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Hike")
}

func TestAdapter_NeverOverwritesUnreadableRemote(t *testing.T) {
	ctx := context.Background()
	ts, store, _ := newAPI(t, "")
	corrupt := []byte(`{"schedules":"not a list","contacts":[{"id":"c","type":"email","value":"a@b.com"}]}`)
	require.NoError(t, store.Put(ctx, model.DataKey, corrupt))
	local := newLocal(t)
	a := NewAdapter(NewRemote(ts.URL, ""), local, zap.NewNop())

	_, err := NewRemote(ts.URL, "").Load(ctx)
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))

	data, err := a.AddContact(ctx, model.Contact{Type: model.ContactEmail, Value: "x@y.com"})
	require.NoError(t, err)
	assert.Len(t, data.Contacts, 1)
	assert.Len(t, local.Load(ctx).Contacts, 1)

	raw, err := store.Get(ctx, model.DataKey)
	require.NoError(t, err)
	assert.Equal(t, corrupt, raw)
}

func TestRemote_StatusError(t *testing.T) {
	ts, _, _ := newAPI(t, "tok")
	r := NewRemote(ts.URL, "")

	_, err := r.Load(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestRemote_SendAlert(t *testing.T) {
	ts, _, sender := newAPI(t, "")
	r := NewRemote(ts.URL, "")

	data := model.DefaultAppData()
	data.Contacts = []model.Contact{{ID: "1", Type: "email", Value: "a@b.com"}}
	require.NoError(t, r.SendAlert(context.Background(), model.NewAlertRequest(data, "manual", "")))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"a@b.com"}, sender.sent[0].To)

	err := r.SendAlert(context.Background(), model.NewAlertRequest(model.DefaultAppData(), "manual", ""))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestLocal_CorruptDataYieldsDefaults(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, model.DataKey, []byte(`[1]`)))

	l := NewLocal(store, model.DataKey, zap.NewNop())
	assert.Equal(t, model.DefaultAppData(), l.Load(ctx))
}
