package store

import (
	"context"
	"fmt"

	"github.com/vbonduro/homefinder/internal/domain"
)

// Query is a single-field comparison with an optional result limit.
type Query struct {
	Field string
	Op    string
	Value any
	Limit int
}

// queryableFields maps API field names to columns that may be compared.
var queryableFields = map[string]string{
	"featured":     "featured",
	"listingType":  "kind",
	"propertyType": "type",
	"price":        "price",
	"bedrooms":     "bedrooms",
	"bathrooms":    "bathrooms",
	"area":         "area_sqft",
	"advisorId":    "advisor_id",
	"createdAt":    "created_at",
}

var queryOps = map[string]bool{"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

// Query returns properties whose field satisfies the comparison, in insertion
// order, capped at q.Limit when positive.
func (s *PropertyStore) Query(ctx context.Context, q Query) ([]*domain.PropertyRecord, error) {
	column, ok := queryableFields[q.Field]
	if !ok {
		return nil, domain.FieldError("field", fmt.Sprintf("cannot query on %q", q.Field))
	}
	if !queryOps[q.Op] {
		return nil, domain.FieldError("op", fmt.Sprintf("unsupported operator %q", q.Op))
	}

	stmt := fmt.Sprintf(`SELECT %s FROM properties WHERE %s %s ? ORDER BY rowid ASC`, propertyColumns, column, q.Op)
	args := []any{q.Value}
	if q.Limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	return collectProperties(rows)
}
