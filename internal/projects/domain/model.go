package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("project not found")
	ErrDuplicateID = errors.New("project id already taken")
)

type Status string

const (
	StatusPlanning   Status = "Planning"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type LandDimensions struct {
	Length    float64 `json:"length" bson:"length"`
	Width     float64 `json:"width" bson:"width"`
	Unit      string  `json:"unit" bson:"unit"`
	TotalArea float64 `json:"totalArea" bson:"totalArea"`
}

// WithArea fills TotalArea from Length and Width.
func (d LandDimensions) WithArea() LandDimensions {
	d.TotalArea = d.Length * d.Width
	return d
}

type Budget struct {
	Amount   float64 `json:"amount" bson:"amount"`
	Currency string  `json:"currency" bson:"currency"`
}

type Location struct {
	Country string `json:"country,omitempty" bson:"country,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
}

type Preferences struct {
	Bedrooms  int      `json:"bedrooms,omitempty" bson:"bedrooms,omitempty"`
	Bathrooms int      `json:"bathrooms,omitempty" bson:"bathrooms,omitempty"`
	Kitchens  int      `json:"kitchens,omitempty" bson:"kitchens,omitempty"`
	Floors    int      `json:"floors,omitempty" bson:"floors,omitempty"`
	Style     string   `json:"style,omitempty" bson:"style,omitempty"`
	Rooms     []string `json:"rooms,omitempty" bson:"rooms,omitempty"`
}

// Generator tags on floor plans.
const (
	GeneratorTemplate = "template"
	GeneratorEnhanced = "enhanced"
	GeneratorUpload   = "upload"
)

type PlanRoom struct {
	Name   string  `json:"name" bson:"name"`
	Type   string  `json:"type,omitempty" bson:"type,omitempty"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty"`
	Length float64 `json:"length,omitempty" bson:"length,omitempty"`
	Area   float64 `json:"area,omitempty" bson:"area,omitempty"`
}

type PlanDimensions struct {
	Width  float64 `json:"width" bson:"width"`
	Length float64 `json:"length" bson:"length"`
	Unit   string  `json:"unit,omitempty" bson:"unit,omitempty"`
}

// FloorPlan is embedded in its project's floorPlans list.
type FloorPlan struct {
	ID          string          `json:"id" bson:"id"`
	ProjectID   string          `json:"projectId" bson:"projectId"`
	UserID      string          `json:"userId" bson:"userId"`
	ImageURL    string          `json:"imageUrl" bson:"imageUrl"`
	View3DURL   string          `json:"view3dUrl,omitempty" bson:"view3dUrl,omitempty"`
	Prompt      string          `json:"prompt,omitempty" bson:"prompt,omitempty"`
	Generator   string          `json:"generator" bson:"generator"`
	TemplateID  string          `json:"templateId,omitempty" bson:"templateId,omitempty"`
	ColorScheme string          `json:"colorScheme,omitempty" bson:"colorScheme,omitempty"`
	Dimensions  *PlanDimensions `json:"dimensions,omitempty" bson:"dimensions,omitempty"`
	Rooms       []PlanRoom      `json:"rooms,omitempty" bson:"rooms,omitempty"`
	TotalArea   float64         `json:"totalArea,omitempty" bson:"totalArea,omitempty"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt"`
}

// Project is a construction project owned by one user.
type Project struct {
	ID             string         `json:"id" bson:"_id"`
	UserID         string         `json:"userId" bson:"userId"`
	Name           string         `json:"name" bson:"name"`
	Description    string         `json:"description,omitempty" bson:"description,omitempty"`
	LandDimensions LandDimensions `json:"landDimensions" bson:"landDimensions"`
	Budget         Budget         `json:"budget" bson:"budget"`
	Location       Location       `json:"location" bson:"location"`
	Preferences    Preferences    `json:"preferences" bson:"preferences"`
	Status         Status         `json:"status" bson:"status"`
	FloorPlans     []FloorPlan    `json:"floorPlans" bson:"floorPlans"`
	CreatedAt      time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Name        *string
	Description *string
	Status      *Status
	Budget      *Budget
	Location    *Location
	Preferences *Preferences
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil &&
		p.Budget == nil && p.Location == nil && p.Preferences == nil
}
