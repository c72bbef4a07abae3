package domain

// Product is one nomenclature entry: a sellable item together with the
// identifiers the marking system needs.
type Product struct {
	Name      string
	GTIN      string
	TNVEDCode string
}

// Position converts the product into an order position with quantity.
func (p Product) Position(quantity int) Position {
	return Position{
		GTIN:      p.GTIN,
		Name:      p.Name,
		TNVEDCode: p.TNVEDCode,
		Quantity:  quantity,
	}
}
