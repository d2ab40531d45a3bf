package services

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a 1-based page request; out-of-range values fall back to defaults.
type Page struct {
	Number int
	Size   int
}

func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 || p.Size > maxPageSize {
		p.Size = defaultPageSize
	}
	return p
}

func (p Page) Limit() int {
	return p.Normalize().Size
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Size
}

// TotalPages is the number of pages needed for total items.
func (p Page) TotalPages(total int64) int {
	size := int64(p.Limit())
	return int((total + size - 1) / size)
}
