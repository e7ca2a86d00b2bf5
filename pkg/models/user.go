package models

// User is the local device owner. ID is generated on the first profile save
// and never changes afterwards.
type User struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required,max=100"`
}
