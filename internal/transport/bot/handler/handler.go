package handler

import (
	"context"

	"dealmint/internal/domain/entity"
)

type DealReader interface {
	ListDeals(ctx context.Context) ([]entity.Deal, error)
	GetDealDetails(ctx context.Context, slug string) (*entity.DealDetails, error)
}

type Sweeper interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

type Handler struct {
	deals   DealReader
	sweeper Sweeper

	// sweepCtx живёт дольше команды, запустившей sweeper.
	sweepCtx context.Context
}

func New(deals DealReader, sweeper Sweeper) *Handler {
	return &Handler{
		deals:    deals,
		sweeper:  sweeper,
		sweepCtx: context.Background(),
	}
}
