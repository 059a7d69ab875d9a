package domain

import "errors"

var ErrNotFound = errors.New("catalog entry not found")

type Designer struct {
	ID              string   `json:"id" bson:"_id" yaml:"id"`
	Name            string   `json:"name" bson:"name" yaml:"name"`
	Specialty       string   `json:"specialty" bson:"specialty" yaml:"specialty"`
	Bio             string   `json:"bio,omitempty" bson:"bio,omitempty" yaml:"bio"`
	Location        string   `json:"location,omitempty" bson:"location,omitempty" yaml:"location"`
	Email           string   `json:"email,omitempty" bson:"email,omitempty" yaml:"email"`
	Phone           string   `json:"phone,omitempty" bson:"phone,omitempty" yaml:"phone"`
	Rating          float64  `json:"rating" bson:"rating" yaml:"rating"`
	YearsExperience int      `json:"yearsExperience,omitempty" bson:"yearsExperience,omitempty" yaml:"yearsExperience"`
	ImageURL        string   `json:"imageUrl,omitempty" bson:"imageUrl,omitempty" yaml:"imageUrl"`
	Portfolio       []string `json:"portfolio,omitempty" bson:"portfolio,omitempty" yaml:"portfolio"`
}

type Material struct {
	ID           string  `json:"id" bson:"_id" yaml:"id"`
	Name         string  `json:"name" bson:"name" yaml:"name"`
	Category     string  `json:"category" bson:"category" yaml:"category"`
	Description  string  `json:"description,omitempty" bson:"description,omitempty" yaml:"description"`
	Unit         string  `json:"unit,omitempty" bson:"unit,omitempty" yaml:"unit"`
	PricePerUnit float64 `json:"pricePerUnit" bson:"pricePerUnit" yaml:"pricePerUnit"`
	Currency     string  `json:"currency,omitempty" bson:"currency,omitempty" yaml:"currency"`
	Supplier     string  `json:"supplier,omitempty" bson:"supplier,omitempty" yaml:"supplier"`
	Sustainable  bool    `json:"sustainable" bson:"sustainable" yaml:"sustainable"`
	ImageURL     string  `json:"imageUrl,omitempty" bson:"imageUrl,omitempty" yaml:"imageUrl"`
}

type Region struct {
	ID            string   `json:"id" bson:"_id" yaml:"id"`
	Name          string   `json:"name" bson:"name" yaml:"name"`
	Country       string   `json:"country" bson:"country" yaml:"country"`
	State         string   `json:"state,omitempty" bson:"state,omitempty" yaml:"state"`
	Climate       string   `json:"climate,omitempty" bson:"climate,omitempty" yaml:"climate"`
	CostPerSqFt   float64  `json:"costPerSqFt" bson:"costPerSqFt" yaml:"costPerSqFt"`
	Currency      string   `json:"currency,omitempty" bson:"currency,omitempty" yaml:"currency"`
	BuildingCodes []string `json:"buildingCodes,omitempty" bson:"buildingCodes,omitempty" yaml:"buildingCodes"`
}

// Seed is the content of a catalog seed file.
type Seed struct {
	Designers []Designer `yaml:"designers"`
	Materials []Material `yaml:"materials"`
	Regions   []Region   `yaml:"regions"`
}

// SeedResult counts the upserted entries per kind.
type SeedResult struct {
	Designers int `json:"designers"`
	Materials int `json:"materials"`
	Regions   int `json:"regions"`
}
