package entities

// Location represents geographic coordinates in decimal degrees.
// The range tags also reject NaN and infinities.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Validate checks that both coordinates are finite and in range
func (l Location) Validate() error {
	return validateStruct("location", l)
}
