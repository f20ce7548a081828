// Package paging carries offset pagination through the domain layer.
package paging

const (
	DefaultSize = 10
	MaxSize     = 1000
)

// Page selects Size records starting at record From.
type Page struct {
	From int
	Size int
}

func Default() Page {
	return Page{From: 0, Size: DefaultSize}
}

// Normalize clamps out-of-range values to the defaults.
func (p Page) Normalize() Page {
	if p.From < 0 {
		p.From = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

// Slice returns the window of items selected by the page.
func Slice[T any](items []T, p Page) []T {
	p = p.Normalize()
	if p.From >= len(items) {
		return []T{}
	}
	end := p.From + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[p.From:end]
}
