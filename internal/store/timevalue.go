package store

import "time"

// timeValue distinguishes "set this column to NULL" from "set this
// column to a timestamp" in a sparse TaskUpdate, since a plain *time.Time
// field can't express "clear it" separately from "don't touch it" once
// wrapped in the outer **timeValue "was this field provided" pointer.
type timeValue struct {
	t     time.Time
	valid bool
}

// TimeValue wraps t as a value to set.
func TimeValue(t time.Time) timeValue {
	return timeValue{t: t, valid: true}
}

// NullTimeValue represents clearing a nullable timestamp column.
func NullTimeValue() timeValue {
	return timeValue{}
}

func (v timeValue) sqlValue() any {
	if !v.valid {
		return nil
	}
	return v.t
}

// Ptr returns &v, the shape TaskUpdate's **timeValue fields expect.
func (v timeValue) Ptr() *timeValue {
	return &v
}
