package currency

import "currency-bot/internal/model"

// PageSize is the number of entries on one page of the full listing.
const PageSize = 50

type Page struct {
	Items  []model.Currency
	Number int
	Total  int
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.Total }

// Paginate slices items into pages of size and returns page number n,
// clamped to [1, total]. An empty list still has one (empty) page.
func Paginate(items []model.Currency, n, size int) Page {
	if size <= 0 {
		size = PageSize
	}
	total := (len(items) + size - 1) / size
	if total < 1 {
		total = 1
	}
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}

	start := (n - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return Page{Items: items[start:end], Number: n, Total: total}
}
