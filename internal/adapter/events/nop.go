// Package events holds ChangePublisher implementations.
package events

import (
	"context"

	"github.com/iho/giftledger/internal/domain"
	"github.com/iho/giftledger/internal/usecase"
)

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, *domain.ChangeEvent) error {
	return nil
}

var _ usecase.ChangePublisher = NopPublisher{}
