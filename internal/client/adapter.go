package client

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noahxzhu/lighthouse/internal/model"
)

// Adapter prefers the remote store when one is configured and falls back to
// local persistence when it fails. Updates are read-modify-write of the whole
// document with no locking; concurrent writers race and the last one wins.
type Adapter struct {
	remote *Remote // nil when remote storage is disabled
	local  *Local
	logger *zap.Logger
}

func NewAdapter(remote *Remote, local *Local, logger *zap.Logger) *Adapter {
	return &Adapter{remote: remote, local: local, logger: logger}
}

func (a *Adapter) RemoteEnabled() bool {
	return a.remote != nil
}

func (a *Adapter) GetData(ctx context.Context) (*model.AppData, error) {
	data, _ := a.load(ctx)
	return data, nil
}

// load reads the current document and reports whether a remote save may
// replace the remote copy. It may not when the remote document exists but
// could not be decoded.
func (a *Adapter) load(ctx context.Context) (*model.AppData, bool) {
	if a.remote == nil {
		return a.local.Load(ctx), false
	}
	data, err := a.remote.Load(ctx)
	if err == nil {
		return data, true
	}
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		a.logger.Error("remote data unreadable, falling back to local", zap.Error(err))
		return a.local.Load(ctx), false
	}
	a.logger.Warn("remote load failed, falling back to local", zap.Error(err))
	return a.local.Load(ctx), true
}

// Update applies fn to the current document and saves the result. A remote
// save failure is logged only; the local copy is always written. An
// unreadable remote document is never overwritten.
func (a *Adapter) Update(ctx context.Context, fn func(*model.AppData)) (*model.AppData, error) {
	data, saveRemote := a.load(ctx)
	fn(data)

	if saveRemote {
		if err := a.remote.Save(ctx, data); err != nil {
			a.logger.Error("remote save failed", zap.Error(err))
		}
	} else if a.remote != nil {
		a.logger.Error("remote save skipped, remote data is unreadable")
	}
	if err := a.local.Save(ctx, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (a *Adapter) UpsertSchedule(ctx context.Context, s model.Schedule) (*model.AppData, error) {
	return a.Update(ctx, func(d *model.AppData) { d.UpsertSchedule(s) })
}

func (a *Adapter) DeleteSchedule(ctx context.Context, id string) (*model.AppData, error) {
	return a.Update(ctx, func(d *model.AppData) { d.DeleteSchedule(id) })
}

func (a *Adapter) SetSettings(ctx context.Context, patch model.SettingsPatch) (*model.AppData, error) {
	return a.Update(ctx, func(d *model.AppData) { patch.Apply(&d.Settings) })
}

// AddContact stores c under a fresh id unless it already carries one.
func (a *Adapter) AddContact(ctx context.Context, c model.Contact) (*model.AppData, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return a.Update(ctx, func(d *model.AppData) { d.Contacts = append(d.Contacts, c) })
}

func (a *Adapter) RemoveContact(ctx context.Context, id string) (*model.AppData, error) {
	return a.Update(ctx, func(d *model.AppData) { d.RemoveContact(id) })
}
