// Package features turns persisted sales history into model-ready matrices.
// The same Build function produces feature vectors for training and serving,
// so the column order seen by the scaler and both models cannot drift.
package features

import "time"

// Width is the number of model input features.
const Width = 5

// Columns names the entries of Vector.Slice in order.
var Columns = [Width]string{"product_code", "month", "day_of_month", "day_of_week", "year"}

// Vector is the unscaled model input for one product on one calendar date.
type Vector struct {
	ProductCode float64
	Month       float64
	DayOfMonth  float64
	DayOfWeek   float64
	Year        float64
}

// Slice returns the vector in Columns order.
func (v Vector) Slice() []float64 {
	return []float64{v.ProductCode, v.Month, v.DayOfMonth, v.DayOfWeek, v.Year}
}

// Calendar holds the date-derived features. DayOfWeek is 0 for Monday through 6 for Sunday.
type Calendar struct {
	Month      int
	DayOfMonth int
	DayOfWeek  int
	Year       int
}

// CalendarOf derives calendar features from the date part of t.
func CalendarOf(t time.Time) Calendar {
	return Calendar{
		Month:      int(t.Month()),
		DayOfMonth: t.Day(),
		DayOfWeek:  (int(t.Weekday()) + 6) % 7,
		Year:       t.Year(),
	}
}

// Build assembles the feature vector for an encoded product on a date.
func Build(code int, date time.Time) Vector {
	c := CalendarOf(date)
	return Vector{
		ProductCode: float64(code),
		Month:       float64(c.Month),
		DayOfMonth:  float64(c.DayOfMonth),
		DayOfWeek:   float64(c.DayOfWeek),
		Year:        float64(c.Year),
	}
}
