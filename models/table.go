package models

// Table is a dining table. Number is the human code printed on the table
// (e.g. "A1"), ID is the backend's numeric key.
type Table struct {
	ID       int64  `json:"id" yaml:"id"`
	Number   string `json:"number" yaml:"number"`
	Capacity int    `json:"capacity" yaml:"capacity"`
}
