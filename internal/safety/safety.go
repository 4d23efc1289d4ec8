// Package safety decides what an entered confirmation code means and acts on
// it: a safe code records the check-in, a danger code raises the alert.
package safety

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noahxzhu/lighthouse/internal/model"
	"github.com/noahxzhu/lighthouse/internal/totp"
)

type Outcome int

const (
	Mistype Outcome = iota
	Safe
	Danger
)

func (o Outcome) String() string {
	switch o {
	case Safe:
		return "safe"
	case Danger:
		return "danger"
	default:
		return "mistype"
	}
}

const (
	ReasonDangerCode = "Danger code entered"
	ReasonMistype    = "Wrong confirmation code"
	ReasonManual     = "Manual trigger"

	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

// Evaluate classifies code against the configured codes and TOTP secret.
// The danger code wins over everything else.
func Evaluate(s model.Settings, code string, now time.Time) Outcome {
	code = strings.TrimSpace(code)
	if code == "" {
		return Mistype
	}
	if s.DangerCode != "" && code == s.DangerCode {
		return Danger
	}
	if s.SafeCode != "" && code == s.SafeCode {
		return Safe
	}
	if totp.Verify(code, s.TotpSecret, now) {
		return Safe
	}
	if s.TrustNoMistype {
		return Danger
	}
	return Mistype
}

// DataStore is the slice of the storage adapter the checker needs.
type DataStore interface {
	GetData(ctx context.Context) (*model.AppData, error)
	SetSettings(ctx context.Context, patch model.SettingsPatch) (*model.AppData, error)
}

type Alerter interface {
	SendAlert(ctx context.Context, req *model.AlertRequest) error
}

type Checker struct {
	store   DataStore
	alerter Alerter
	logger  *zap.Logger
	now     func() time.Time
}

func NewChecker(store DataStore, alerter Alerter, logger *zap.Logger) *Checker {
	return &Checker{store: store, alerter: alerter, logger: logger, now: time.Now}
}

// Confirm evaluates code. Safe records lastSafeAt; Danger sends the alert.
func (c *Checker) Confirm(ctx context.Context, code string) (Outcome, error) {
	data, err := c.store.GetData(ctx)
	if err != nil {
		return Mistype, fmt.Errorf("load data: %w", err)
	}

	now := c.now()
	outcome := Evaluate(data.Settings, code, now)
	c.logger.Info("confirmation evaluated", zap.Stringer("outcome", outcome))

	switch outcome {
	case Safe:
		at := now.UnixMilli()
		if _, err := c.store.SetSettings(ctx, model.SettingsPatch{LastSafeAt: &at}); err != nil {
			return outcome, fmt.Errorf("record safe check-in: %w", err)
		}
	case Danger:
		reason := ReasonDangerCode
		if strings.TrimSpace(code) != data.Settings.DangerCode {
			reason = ReasonMistype
		}
		if err := c.send(ctx, data, reason, now); err != nil {
			return outcome, err
		}
	}
	return outcome, nil
}

// Trigger sends the alert immediately.
func (c *Checker) Trigger(ctx context.Context, reason string) error {
	data, err := c.store.GetData(ctx)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	if reason == "" {
		reason = ReasonManual
	}
	return c.send(ctx, data, reason, c.now())
}

func (c *Checker) send(ctx context.Context, data *model.AppData, reason string, now time.Time) error {
	when := model.Timestamp(now.UTC().Format(isoMillis))
	if err := c.alerter.SendAlert(ctx, model.NewAlertRequest(data, reason, when)); err != nil {
		c.logger.Error("alert dispatch failed", zap.String("reason", reason), zap.Error(err))
		return fmt.Errorf("send alert: %w", err)
	}
	c.logger.Warn("alert dispatched", zap.String("reason", reason))
	return nil
}
