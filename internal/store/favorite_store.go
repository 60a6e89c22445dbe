package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/homefinder/internal/domain"
)

// FavoriteStore persists user+property favorite pairs.
type FavoriteStore struct {
	db *sql.DB
}

func NewFavoriteStore(db *sql.DB) *FavoriteStore {
	return &FavoriteStore{db: db}
}

// Add records the pair; adding an existing pair is a no-op.
func (s *FavoriteStore) Add(ctx context.Context, userID, propertyID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, property_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, property_id) DO NOTHING
	`, userID, propertyID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove deletes the pair; removing a missing pair is a no-op.
func (s *FavoriteStore) Remove(ctx context.Context, userID, propertyID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM favorites WHERE user_id = ? AND property_id = ?
	`, userID, propertyID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (s *FavoriteStore) Exists(ctx context.Context, userID, propertyID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM favorites WHERE user_id = ? AND property_id = ?
	`, userID, propertyID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return n > 0, nil
}

// ListByUser returns the user's favorites, oldest first.
func (s *FavoriteStore) ListByUser(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, property_id, created_at FROM favorites
		WHERE user_id = ? ORDER BY created_at ASC, rowid ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var favs []*domain.Favorite
	for rows.Next() {
		f := &domain.Favorite{}
		if err := rows.Scan(&f.UserID, &f.PropertyID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favs = append(favs, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}

	return favs, nil
}
