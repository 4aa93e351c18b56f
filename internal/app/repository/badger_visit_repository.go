package repository

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/sifan077/VisitAudit/internal/app/model"
)

var visitKeyPrefix = []byte("visit/")

type badgerVisitRepository struct {
	db *badger.DB
}

// NewBadgerVisitRepository stores visits in an embedded Badger database. Keys sort by
// server timestamp so iteration yields ingestion order.
func NewBadgerVisitRepository(db *badger.DB) VisitRepository {
	return &badgerVisitRepository{db: db}
}

func visitKey(v *model.VisitRecord) []byte {
	return fmt.Appendf(append([]byte(nil), visitKeyPrefix...), "%020d/%s", v.ServerTimestamp.UnixNano(), v.ID)
}

func (r *badgerVisitRepository) Append(_ context.Context, visit *model.VisitRecord) error {
	data, err := json.Marshal(visit)
	if err != nil {
		return fmt.Errorf("encode visit: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(visitKey(visit), data)
	})
	if err != nil {
		return fmt.Errorf("write visit: %w", err)
	}
	return nil
}

func (r *badgerVisitRepository) ListAll(ctx context.Context) ([]model.VisitRecord, error) {
	var out []model.VisitRecord

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: visitKeyPrefix})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var v model.VisitRecord
			if err := json.Unmarshal(data, &v); err != nil {
				return fmt.Errorf("decode visit: %w", err)
			}
			out = append(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan visits: %w", err)
	}
	return out, nil
}
