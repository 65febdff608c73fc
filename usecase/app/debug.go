package app

import (
	"context"

	"github.com/dealease/backend/usecase"
)

// Debug command and query names.
const (
	CmdClearErrors  = "clear_errors"
	CmdReset        = "reset"
	CmdSaveSnapshot = "save_snapshot"
	QryErrors       = "errors"
	QrySnapshot     = "snapshot"
	QryCounts       = "counts"
)

// RegisterDebug exposes the store maintenance helpers on d.
func (s *Stores) RegisterDebug(d *usecase.Dispatcher) {
	d.RegisterCommand(CmdClearErrors, func(context.Context, any) (any, error) {
		s.ClearAllErrors()
		return s.Errors(), nil
	})
	d.RegisterCommand(CmdReset, func(context.Context, any) (any, error) {
		s.Reset()
		return s.Counts(), nil
	})
	d.RegisterCommand(CmdSaveSnapshot, func(ctx context.Context, _ any) (any, error) {
		if err := s.SaveSnapshot(ctx); err != nil {
			return nil, err
		}
		return s.Counts(), nil
	})
	d.RegisterQuery(QryErrors, func(context.Context, any) (any, error) {
		return s.Errors(), nil
	})
	d.RegisterQuery(QrySnapshot, func(context.Context, any) (any, error) {
		return s.Snapshot(), nil
	})
	d.RegisterQuery(QryCounts, func(context.Context, any) (any, error) {
		return s.Counts(), nil
	})
}

// Counts reports the size of every collection.
func (s *Stores) Counts() map[string]int {
	return map[string]int{
		"buyers":        s.Buyers.Len(),
		"sellers":       s.Sellers.Len(),
		"matches":       s.Matches.Len(),
		"deals":         s.Deals.Len(),
		"messages":      s.Chat.Messages().Len(),
		"notifications": s.Chat.Notifications().Len(),
	}
}
