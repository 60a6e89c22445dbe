package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/vbonduro/homefinder/internal/domain"
	"github.com/vbonduro/homefinder/internal/photostore"
	"github.com/vbonduro/homefinder/internal/store"
)

// propertyGateway is the subset of gateway.Gateway that PropertyService requires.
type propertyGateway interface {
	CreateProperty(ctx context.Context, rec domain.PropertyRecord) (*domain.PropertyRecord, error)
	UpdateProperty(ctx context.Context, rec domain.PropertyRecord) (*domain.PropertyRecord, error)
	DeleteProperty(ctx context.Context, id string) error
	GetProperty(ctx context.Context, id string) (*domain.PropertyRecord, error)
	QueryProperties(ctx context.Context, q store.Query) ([]domain.PropertyRecord, error)
}

// PropertyService handles admin and advisor writes: listing submissions,
// edits, removals and image uploads.
type PropertyService struct {
	gateway       propertyGateway
	photoStg      photostore.PhotoStore
	publicBaseURL string
	logger        *slog.Logger
}

func NewPropertyService(gw propertyGateway, photoStg photostore.PhotoStore, publicBaseURL string, logger *slog.Logger) *PropertyService {
	return &PropertyService{
		gateway:       gw,
		photoStg:      photoStg,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// CreateProperty validates in and submits a new listing. Nothing is written
// when validation fails.
func (s *PropertyService) CreateProperty(ctx context.Context, in domain.PropertyInput) (*domain.PropertyRecord, error) {
	in = in.Normalized()
	if err := domain.ValidatePropertyInput(in); err != nil {
		return nil, err
	}

	rec := domain.PropertyRecord{}
	in.Apply(&rec)
	created, err := s.gateway.CreateProperty(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	s.logger.Info("property created", "property_id", created.ID, "type", created.Type, "listing_type", created.Kind)
	return created, nil
}

func (s *PropertyService) GetProperty(ctx context.Context, id string) (*domain.PropertyRecord, error) {
	rec, err := s.gateway.GetProperty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// UpdateProperty replaces the editable fields of an existing listing.
func (s *PropertyService) UpdateProperty(ctx context.Context, id string, in domain.PropertyInput) (*domain.PropertyRecord, error) {
	in = in.Normalized()
	if err := domain.ValidatePropertyInput(in); err != nil {
		return nil, err
	}

	rec, err := s.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := rec.Images
	in.Apply(rec)
	updated, err := s.gateway.UpdateProperty(ctx, *rec)
	if err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	s.logger.Info("property updated", "property_id", id)

	var dropped []string
	for _, u := range previous {
		if !slices.Contains(updated.Images, u) {
			dropped = append(dropped, u)
		}
	}
	s.releaseImages(ctx, id, dropped)
	return updated, nil
}

// DeleteProperty removes the listing and any of its images this service hosts.
func (s *PropertyService) DeleteProperty(ctx context.Context, id string) error {
	rec, err := s.gateway.GetProperty(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get property: %w", err)
	}
	if err := s.gateway.DeleteProperty(ctx, id); err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	s.logger.Info("property deleted", "property_id", id)
	if rec != nil {
		s.releaseImages(ctx, id, rec.Images)
	}
	return nil
}

// releaseImages deletes the hosted images among urls. Images hosted elsewhere
// are left alone and failures are only logged.
func (s *PropertyService) releaseImages(ctx context.Context, propertyID string, urls []string) {
	for _, u := range urls {
		key, ok := s.hostedKey(u)
		if !ok {
			continue
		}
		if err := s.photoStg.Delete(ctx, key); err != nil && !errors.Is(err, photostore.ErrNotFound) {
			s.logger.Warn("failed to delete listing image", "property_id", propertyID, "storage_key", key, "error", err)
			continue
		}
		s.logger.Debug("listing image deleted", "property_id", propertyID, "storage_key", key)
	}
}

func (s *PropertyService) hostedKey(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.publicBaseURL+"/images/")
	if !ok || key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}

// QueryProperties compares one field against value, reading straight from the
// gateway rather than the mirror. An empty field lists everything up to limit.
func (s *PropertyService) QueryProperties(ctx context.Context, field, op, value string, limit int) ([]domain.PropertyRecord, error) {
	if field == "" {
		field, op, value = "price", ">", "0"
	}
	if op == "" {
		op = "="
	}
	v, err := queryValue(field, value)
	if err != nil {
		return nil, err
	}
	q := store.Query{Field: field, Op: op, Value: v, Limit: limit}
	recs, err := s.gateway.QueryProperties(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	return recs, nil
}

// queryValue converts the raw query value to the column's type. A value that
// does not parse for a typed column is a validation error on "value".
func queryValue(field, raw string) (any, error) {
	switch field {
	case "price", "area":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, domain.FieldError("value", "must be a number")
		}
		return f, nil
	case "bedrooms", "bathrooms":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, domain.FieldError("value", "must be an integer")
		}
		return n, nil
	case "featured":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, domain.FieldError("value", "must be true or false")
		}
		return b, nil
	}
	return raw, nil
}

// UploadImage stores an image and returns the public URL it is served from.
func (s *PropertyService) UploadImage(ctx context.Context, prefix string, imageData []byte, mimeType string) (string, error) {
	s.logger.Info("upload image started", "prefix", prefix, "mime_type", mimeType, "bytes", len(imageData))

	storageKey, err := s.photoStg.Save(ctx, prefix, mimeType, bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	s.logger.Debug("image saved", "storage_key", storageKey)
	return s.ImageURL(storageKey), nil
}

// OpenImage returns the stored image and its MIME type. Missing images
// report domain.ErrNotFound.
func (s *PropertyService) OpenImage(ctx context.Context, storageKey string) (io.ReadCloser, string, error) {
	rc, mimeType, err := s.photoStg.Get(ctx, storageKey)
	if errors.Is(err, photostore.ErrNotFound) {
		return nil, "", domain.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	return rc, mimeType, nil
}

func (s *PropertyService) ImageURL(storageKey string) string {
	return s.publicBaseURL + "/images/" + storageKey
}
