// Package store is the data access layer: thin filtered queries and mutations
// over the relational store. Lookups of a single record return (nil, nil) when
// the row does not exist; list lookups return an empty, non-nil slice.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// DB exposes the handle for callers that need a transaction.
func (s *Store) DB() *gorm.DB { return s.db }

// WithTx runs fn against a store bound to a single transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// first loads one row into dst; absence is reported as found=false, not an error.
func first(q *gorm.DB, dst any) (bool, error) {
	err := q.First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
