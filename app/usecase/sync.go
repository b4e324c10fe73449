package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"inventory-sync-service/app/domain"
)

type StatusReporter interface {
	Status() domain.ListenerStatus
}

type syncUsecase struct {
	listener       StatusReporter
	mirror         domain.StockMirror
	productRepo    domain.ProductRepository
	observerBuffer int
}

func NewSyncUsecase(listener StatusReporter, mirror domain.StockMirror, productRepo domain.ProductRepository, observerBuffer int) domain.SyncService {
	return &syncUsecase{listener, mirror, productRepo, observerBuffer}
}

func (u *syncUsecase) Status(ctx context.Context) domain.ListenerStatus {
	status := u.listener.Status()
	if status.Degraded {
		slog.WarnContext(ctx, "[syncUsecase] Status", "degraded", status.State, "lastError", status.LastError)
	}
	return status
}

func (u *syncUsecase) Mirror(ctx context.Context) []domain.MirrorEntry {
	return u.mirror.Snapshot()
}

func (u *syncUsecase) MirrorEntry(ctx context.Context, productID int64) (domain.MirrorEntry, error) {
	entry, ok := u.mirror.Get(productID)
	if !ok {
		return domain.MirrorEntry{}, fmt.Errorf("%w: product %d not mirrored", domain.ErrNotFound, productID)
	}
	return entry, nil
}

// Resync reloads the mirror from the record store, which is how a replica
// catches up on events it missed.
func (u *syncUsecase) Resync(ctx context.Context) (domain.ResyncResult, error) {
	products, err := u.productRepo.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "[syncUsecase] Resync", "list", err)
		return domain.ResyncResult{}, err
	}

	seeded := u.mirror.Seed(products)
	slog.InfoContext(ctx, "[syncUsecase] Resync", "products", len(products), "seeded", seeded)
	return domain.ResyncResult{Seeded: seeded}, nil
}

func (u *syncUsecase) Watch(ctx context.Context) (<-chan domain.ChangeEvent, func()) {
	return u.mirror.Watch(u.observerBuffer)
}
