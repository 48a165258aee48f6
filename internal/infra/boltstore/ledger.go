// Package boltstore keeps the reservation ledger in an embedded BoltDB file,
// so confirmations survive restarts without an external database.
package boltstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"parking-reservation/internal/domain/ledger"
	"parking-reservation/internal/infra"
	"parking-reservation/internal/infra/converter"
	"parking-reservation/internal/pkg/errs"

	bolt "github.com/boltdb/bolt"
	"github.com/google/uuid"
)

const bucketName = "confirmed_bookings"

type Ledger struct {
	db *bolt.DB
}

// Open opens (or creates) the ledger file and ensures the bucket exists.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errs.Wrapf(err, "failed to create ledger directory %s", dir)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errs.Wrapf(err, "failed to open ledger %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, errs.Wrap(err, "failed to create ledger bucket")
	}

	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append writes the entry once. An existing key is never overwritten.
func (l *Ledger) Append(_ context.Context, entry *ledger.ConfirmedBooking) error {
	data, err := json.Marshal(converter.LedgerToInfra(entry))
	if err != nil {
		return errs.Wrap(err, "failed to encode ledger entry")
	}
	key := entry.BookingID()

	err = l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b.Get(key[:]) != nil {
			return errs.Wrapf(errs.ErrAlreadyConfirmed, "booking %s", key)
		}
		return b.Put(key[:], data)
	})
	if err != nil {
		if errs.Is(err, errs.ErrAlreadyConfirmed) {
			return err
		}
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to append ledger entry", err)
	}
	return nil
}

func (l *Ledger) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*ledger.ConfirmedBooking, error) {
	var rec converter.LedgerRecord
	found := false

	err := l.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get(bookingID[:])
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read ledger entry", err)
	}
	if !found {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "ledger entry not found", nil, errs.ErrBookingNotFound)
	}
	return converter.LedgerToDomain(rec)
}

func (l *Ledger) List(_ context.Context) ([]*ledger.ConfirmedBooking, error) {
	entries := make([]*ledger.ConfirmedBooking, 0)

	err := l.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(_, v []byte) error {
			var rec converter.LedgerRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			e, err := converter.LedgerToDomain(rec)
			if err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to list ledger", err)
	}

	ledger.SortByConfirmation(entries)
	return entries, nil
}
