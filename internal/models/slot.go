package models

import "fmt"

// Meal is the meal period of a slot.
type Meal string

const (
	MealLunch  Meal = "lunch"
	MealDinner Meal = "dinner"
)

// ValidMeal reports whether m is one of the known meal periods.
func ValidMeal(m Meal) bool {
	return m == MealLunch || m == MealDinner
}

// Slot is the partition under which all daily state is scoped:
// a date (ISO "YYYY-MM-DD"), a meal period, and the privacy variant.
// Private slots are a separate pool whose reads go through the friend filter.
type Slot struct {
	Date    string
	Meal    Meal
	Private bool
}

func (s Slot) String() string {
	if s.Private {
		return fmt.Sprintf("%s/%s/private", s.Date, s.Meal)
	}
	return fmt.Sprintf("%s/%s", s.Date, s.Meal)
}
