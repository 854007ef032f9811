package entity

// Category agrupa productos; Color e Icon son solo de presentación.
type Category struct {
	Meta
	Name        string
	Description string
	Color       string
	Icon        string
}
