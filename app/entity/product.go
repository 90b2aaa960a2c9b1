package entity

type Product struct {
	ID         int64
	Name       string
	PriceCents int64
	Currency   string
	ImageURL   string
}
