package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noahxzhu/lighthouse/internal/model"
	"github.com/noahxzhu/lighthouse/internal/storage"
)

// Local persists the document on this machine.
type Local struct {
	store  storage.Store
	key    string
	logger *zap.Logger
}

func NewLocal(store storage.Store, key string, logger *zap.Logger) *Local {
	return &Local{store: store, key: key, logger: logger}
}

// Load never fails: unreadable data is logged and replaced by defaults.
func (l *Local) Load(ctx context.Context) *model.AppData {
	raw, err := l.store.Get(ctx, l.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.logger.Error("failed to load local data", zap.Error(err))
		}
		return model.DefaultAppData()
	}
	data, err := model.DecodeAppData(raw)
	if err != nil {
		l.logger.Error("failed to decode local data", zap.Error(err))
		return model.DefaultAppData()
	}
	return data
}

func (l *Local) Save(ctx context.Context, data *model.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal local data: %w", err)
	}
	return l.store.Put(ctx, l.key, raw)
}
