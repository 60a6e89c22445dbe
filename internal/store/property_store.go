package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/homefinder/internal/domain"
)

const propertyColumns = `id, title, description, price, kind, type, bedrooms, bathrooms, area_sqft,
	location, address, lat, lng, images, amenities, featured, advisor_id, created_at, updated_at`

type PropertyStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPropertyStore(db *sql.DB) *PropertyStore {
	return &PropertyStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts rec. CreatedAt and UpdatedAt are set by the store.
func (s *PropertyStore) Create(ctx context.Context, rec domain.PropertyRecord) (*domain.PropertyRecord, error) {
	images, amenities, err := encodeLists(rec)
	if err != nil {
		return nil, err
	}
	now := s.now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO properties (`+propertyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Title, rec.Description, rec.Price, string(rec.Kind), string(rec.Type), rec.Bedrooms, rec.Bathrooms, rec.AreaSqft,
		rec.Location, rec.Address, rec.Coordinates.Lat, rec.Coordinates.Lng, images, amenities, rec.Featured, rec.AdvisorID,
		now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	return s.GetByID(ctx, rec.ID)
}

// GetByID returns (nil, nil) when no property has the given id.
func (s *PropertyStore) GetByID(ctx context.Context, id string) (*domain.PropertyRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id)
	rec, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return rec, nil
}

// List returns every property in insertion order.
func (s *PropertyStore) List(ctx context.Context) ([]*domain.PropertyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+propertyColumns+` FROM properties ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return collectProperties(rows)
}

// Update overwrites the mutable fields of the property with rec.ID.
func (s *PropertyStore) Update(ctx context.Context, rec domain.PropertyRecord) (*domain.PropertyRecord, error) {
	images, amenities, err := encodeLists(rec)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE properties SET title = ?, description = ?, price = ?, kind = ?, type = ?, bedrooms = ?,
			bathrooms = ?, area_sqft = ?, location = ?, address = ?, lat = ?, lng = ?, images = ?,
			amenities = ?, featured = ?, advisor_id = ?, updated_at = ?
		WHERE id = ?
	`, rec.Title, rec.Description, rec.Price, string(rec.Kind), string(rec.Type), rec.Bedrooms,
		rec.Bathrooms, rec.AreaSqft, rec.Location, rec.Address, rec.Coordinates.Lat, rec.Coordinates.Lng, images,
		amenities, rec.Featured, rec.AdvisorID, s.now(), rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}

	if err := expectOneRow(result, "property"); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, rec.ID)
}

func (s *PropertyStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	return expectOneRow(result, "property")
}

func scanProperty(row interface{ Scan(...any) error }) (*domain.PropertyRecord, error) {
	rec := &domain.PropertyRecord{}
	var images, amenities string
	err := row.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.Price, &rec.Kind, &rec.Type, &rec.Bedrooms,
		&rec.Bathrooms, &rec.AreaSqft, &rec.Location, &rec.Address, &rec.Coordinates.Lat, &rec.Coordinates.Lng,
		&images, &amenities, &rec.Featured, &rec.AdvisorID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &rec.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images of %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(amenities), &rec.Amenities); err != nil {
		return nil, fmt.Errorf("failed to decode amenities of %s: %w", rec.ID, err)
	}
	return rec, nil
}

func collectProperties(rows *sql.Rows) ([]*domain.PropertyRecord, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var props []*domain.PropertyRecord
	for rows.Next() {
		rec, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		props = append(props, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}

	return props, nil
}

func encodeLists(rec domain.PropertyRecord) (string, string, error) {
	if rec.Images == nil {
		rec.Images = []string{}
	}
	if rec.Amenities == nil {
		rec.Amenities = []string{}
	}
	images, err := json.Marshal(rec.Images)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode images: %w", err)
	}
	amenities, err := json.Marshal(rec.Amenities)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode amenities: %w", err)
	}
	return string(images), string(amenities), nil
}

func expectOneRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %w", what, domain.ErrNotFound)
	}
	return nil
}
