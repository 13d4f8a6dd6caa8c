package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PropertyType string

const (
	TypeApartment   PropertyType = "Apartment"
	TypeHouse       PropertyType = "House"
	TypeVillas      PropertyType = "Villas"
	TypeOffice      PropertyType = "Office"
	TypeIndustrial  PropertyType = "Industrial"
	TypeRetailSpace PropertyType = "Retail Space"
	TypeLand        PropertyType = "Land"
	TypeBoat        PropertyType = "Boat"
	TypeCar         PropertyType = "Car"
)

func (t PropertyType) Valid() bool {
	switch t {
	case TypeApartment, TypeHouse, TypeVillas, TypeOffice, TypeIndustrial,
		TypeRetailSpace, TypeLand, TypeBoat, TypeCar:
		return true
	}
	return false
}

type Address struct {
	Street string
	City   string
}

type Media struct {
	IsFeature bool
	ImageURL  string
}

// Owner is the denormalized snapshot of the listing owner embedded in a
// property document.
type Owner struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
}

type Property struct {
	ID           primitive.ObjectID
	Owner        Owner
	Title        string
	Slug         string
	Description  string
	IsActive     bool
	Price        float64
	PropertyType PropertyType
	Address      Address
	Media        []Media
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Reservation struct {
	ID         primitive.ObjectID
	PropertyID primitive.ObjectID
	DateStart  time.Time
	DateEnd    time.Time
	Body       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PropertyFilter narrows the public feed.
type PropertyFilter struct {
	Type   PropertyType
	Owner  string // owner username
	Limit  int64
	Offset int64
}
