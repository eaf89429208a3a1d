package services

import (
	"context"

	"go.uber.org/zap"
)

// Indexer nimmt geschriebene Entitäten für den Suchindex entgegen.
type Indexer interface {
	Index(ctx context.Context, kind, id string, document any) error
}

// NopIndexer verwirft alle Dokumente.
type NopIndexer struct{}

func (NopIndexer) Index(context.Context, string, string, any) error { return nil }

// LogIndexer protokolliert die Dokumente nur und zählt sie.
type LogIndexer struct {
	Logger *zap.Logger
}

func (l LogIndexer) Index(ctx context.Context, kind, id string, document any) error {
	indexedDocuments.WithLabelValues(kind).Inc()
	l.Logger.Debug("Dokument indexiert", zap.String("kind", kind), zap.String("id", id))
	return nil
}
