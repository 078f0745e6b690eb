package model

import (
	"fmt"
	"strings"
)

// Category identifies one of the aircraft classes a spotting can be filed under.
type Category string

// Category constants. The ids match the identifiers used by reports and rule tables.
const (
	CategoryFighterJet Category = "1"
	CategoryAirliner   Category = "2"
	CategoryHelicopter Category = "3"
	CategoryDrone      Category = "4"
	CategoryCargo      Category = "5"
	// CategoryUnknown is never produced by identification; it is the zero value
	// returned when parsing fails.
	CategoryUnknown Category = ""
)

// UnknownCategoryName is the display name for ids outside the known set.
const UnknownCategoryName = "General Aviation"

// Categories returns the known categories in id order.
func Categories() []Category {
	return []Category{
		CategoryFighterJet,
		CategoryAirliner,
		CategoryHelicopter,
		CategoryDrone,
		CategoryCargo,
	}
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFighterJet, CategoryAirliner, CategoryHelicopter, CategoryDrone, CategoryCargo:
		return true
	case CategoryUnknown:
		return false
	}
	return false
}

// Name returns the singular display name.
func (c Category) Name() string {
	switch c {
	case CategoryFighterJet:
		return "Fighter Jet"
	case CategoryAirliner:
		return "Commercial Airliner"
	case CategoryHelicopter:
		return "Helicopter"
	case CategoryDrone:
		return "Drone"
	case CategoryCargo:
		return "Cargo Aircraft"
	case CategoryUnknown:
		return UnknownCategoryName
	}
	return UnknownCategoryName
}

// Slug returns the hyphenated identifier used by the vision prompt.
func (c Category) Slug() string {
	switch c {
	case CategoryFighterJet:
		return "fighter-jet"
	case CategoryAirliner:
		return "commercial-airliner"
	case CategoryHelicopter:
		return "helicopter"
	case CategoryDrone:
		return "drone"
	case CategoryCargo:
		return "cargo-aircraft"
	case CategoryUnknown:
		return ""
	}
	return ""
}

// Description returns a one-line description suitable for selection lists.
func (c Category) Description() string {
	switch c {
	case CategoryFighterJet:
		return "Military jet aircraft for combat and defense"
	case CategoryAirliner:
		return "Jets used for passenger transport (Airbus, Boeing, etc)"
	case CategoryHelicopter:
		return "Rotary-wing aircraft including choppers"
	case CategoryDrone:
		return "UAVs, quadcopters and other unmanned jets"
	case CategoryCargo:
		return "Freighters and transport jets for goods"
	case CategoryUnknown:
		return ""
	}
	return ""
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory accepts an id ("1"), a slug ("fighter-jet"), or a display name
// ("Fighter Jet", "fighter jet") and returns the matching category.
func ParseCategory(s string) (Category, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return CategoryUnknown, fmt.Errorf("category is required")
	}

	for _, c := range Categories() {
		if normalized == string(c) ||
			normalized == c.Slug() ||
			normalized == strings.ToLower(c.Name()) ||
			normalized == strings.ReplaceAll(c.Slug(), "-", " ") {
			return c, nil
		}
	}

	return CategoryUnknown, fmt.Errorf("unknown category: %q", s)
}

// CategoryStat summarizes how many reports were filed under a category.
type CategoryStat struct {
	Category   Category `json:"category"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
}
