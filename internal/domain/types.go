package domain

import (
	"slices"
	"strings"
	"time"
)

type ListingKind string

const (
	ForSale ListingKind = "for-sale"
	ForRent ListingKind = "for-rent"
)

func (k ListingKind) Valid() bool {
	return k == ForSale || k == ForRent
}

type PropertyType string

const (
	Apartment  PropertyType = "apartment"
	House      PropertyType = "house"
	Condo      PropertyType = "condo"
	Commercial PropertyType = "commercial"
	Land       PropertyType = "land"
)

var PropertyTypes = []PropertyType{Apartment, House, Condo, Commercial, Land}

func (t PropertyType) Valid() bool {
	return slices.Contains(PropertyTypes, t)
}

type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" yaml:"lng" validate:"gte=-180,lte=180"`
}

// PropertyRecord mirrors one listing document held by the gateway.
type PropertyRecord struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       float64      `json:"price"`
	Kind        ListingKind  `json:"listingType"`
	Type        PropertyType `json:"propertyType"`
	Bedrooms    int          `json:"bedrooms"`
	Bathrooms   int          `json:"bathrooms"`
	AreaSqft    float64      `json:"area"`
	Location    string       `json:"location"`
	Address     string       `json:"address"`
	Coordinates Coordinates  `json:"coordinates"`
	Images      []string     `json:"images"`
	Amenities   []string     `json:"amenities"`
	Featured    bool         `json:"featured"`
	AdvisorID   string       `json:"advisorId,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Clone returns a copy that shares no slices with r.
func (r PropertyRecord) Clone() PropertyRecord {
	r.Images = slices.Clone(r.Images)
	r.Amenities = slices.Clone(r.Amenities)
	return r
}

// PropertyInput is the payload accepted by the admin create and edit forms.
type PropertyInput struct {
	Title       string       `json:"title" yaml:"title" validate:"required,max=200"`
	Description string       `json:"description" yaml:"description" validate:"max=10000"`
	Price       float64      `json:"price" yaml:"price" validate:"gt=0"`
	Kind        ListingKind  `json:"listingType" yaml:"listingType" validate:"required,oneof=for-sale for-rent"`
	Type        PropertyType `json:"propertyType" yaml:"propertyType" validate:"required,oneof=apartment house condo commercial land"`
	Bedrooms    int          `json:"bedrooms" yaml:"bedrooms" validate:"gte=0"`
	Bathrooms   int          `json:"bathrooms" yaml:"bathrooms" validate:"gte=0"`
	AreaSqft    float64      `json:"area" yaml:"area" validate:"gte=0"`
	Location    string       `json:"location" yaml:"location" validate:"required"`
	Address     string       `json:"address" yaml:"address"`
	Coordinates Coordinates  `json:"coordinates" yaml:"coordinates"`
	Images      []string     `json:"images" yaml:"images" validate:"min=1,dive,required"`
	Amenities   []string     `json:"amenities" yaml:"amenities" validate:"dive,required"`
	Featured    bool         `json:"featured" yaml:"featured"`
	AdvisorID   string       `json:"advisorId" yaml:"advisorId"`
}

// NewPropertyRecord builds a record from the required listing fields. Optional
// fields are set on the returned value by the caller.
func NewPropertyRecord(id, title string, price float64, kind ListingKind, typ PropertyType, location string, createdAt time.Time) PropertyRecord {
	return PropertyRecord{
		ID:        id,
		Title:     title,
		Price:     price,
		Kind:      kind,
		Type:      typ,
		Location:  location,
		Images:    []string{},
		Amenities: []string{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// Normalized returns a copy with surrounding whitespace removed from text
// fields and list entries.
func (in PropertyInput) Normalized() PropertyInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Address = strings.TrimSpace(in.Address)
	in.AdvisorID = strings.TrimSpace(in.AdvisorID)
	in.Images = trimAll(in.Images)
	in.Amenities = trimAll(in.Amenities)
	return in
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// Apply copies the input fields onto r, leaving identity and timestamps alone.
func (in PropertyInput) Apply(r *PropertyRecord) {
	r.Title = in.Title
	r.Description = in.Description
	r.Price = in.Price
	r.Kind = in.Kind
	r.Type = in.Type
	r.Bedrooms = in.Bedrooms
	r.Bathrooms = in.Bathrooms
	r.AreaSqft = in.AreaSqft
	r.Location = in.Location
	r.Address = in.Address
	r.Coordinates = in.Coordinates
	r.Images = slices.Clone(in.Images)
	r.Amenities = slices.Clone(in.Amenities)
	r.Featured = in.Featured
	r.AdvisorID = in.AdvisorID
	if r.Images == nil {
		r.Images = []string{}
	}
	if r.Amenities == nil {
		r.Amenities = []string{}
	}
}

type Favorite struct {
	UserID     string    `json:"userId"`
	PropertyID string    `json:"propertyId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MessageSnapshot is the last message shown in a thread list.
type MessageSnapshot struct {
	Text     string    `json:"text"`
	SenderID string    `json:"senderId"`
	SentAt   time.Time `json:"sentAt"`
}

type Thread struct {
	ID            string           `json:"id"`
	PropertyID    string           `json:"propertyId"`
	PropertyTitle string           `json:"propertyTitle"`
	Participants  []string         `json:"participants"`
	LastMessage   *MessageSnapshot `json:"lastMessage,omitempty"`
	Unread        int              `json:"unread"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type Message struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"threadId"`
	Text     string    `json:"text"`
	SenderID string    `json:"senderId"`
	SentAt   time.Time `json:"sentAt"`
}

type NotificationCategory string

const (
	CategoryMessage  NotificationCategory = "message"
	CategoryProperty NotificationCategory = "property"
	CategorySystem   NotificationCategory = "system"
)

func (c NotificationCategory) Valid() bool {
	return c == CategoryMessage || c == CategoryProperty || c == CategorySystem
}

type Notification struct {
	ID        string               `json:"id"`
	Category  NotificationCategory `json:"type"`
	Title     string               `json:"title"`
	Body      string               `json:"message"`
	Read      bool                 `json:"read"`
	CreatedAt time.Time            `json:"createdAt"`
}

// NewNotification is a notification before the feed assigns its id and time.
type NewNotification struct {
	Category NotificationCategory `json:"type"`
	Title    string               `json:"title"`
	Body     string               `json:"message"`
}
