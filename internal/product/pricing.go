package product

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// applySale derives the price fields from the sale state. On sale, the regular
// price lives in OriginalPrice and Price is the discounted one.
func applySale(p *Product) {
	if !p.OnSale {
		if p.OriginalPrice != nil {
			p.Price = *p.OriginalPrice
		}
		p.OriginalPrice = nil
		p.SalePercent = 0
		return
	}

	base := p.Price
	if p.OriginalPrice != nil {
		base = *p.OriginalPrice
	}
	base = RoundCents(base)
	p.OriginalPrice = &base
	p.Price = Discount(base, p.SalePercent)
}

// Discount returns price reduced by percent, rounded to cents.
func Discount(price float64, percent int) float64 {
	return decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(int64(100 - percent))).
		Div(hundred).
		Round(2).
		InexactFloat64()
}

// RoundCents rounds v to two decimal places.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
