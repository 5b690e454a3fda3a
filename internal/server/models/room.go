package models

// Room is a hotel room tickets are opened against.
type Room struct {
	ID    string
	Code  string
	Floor int
}
