package collection

// DefaultVisiblePages is the number of page links shown by PageWindow.
const DefaultVisiblePages = 5

// PageLink is one entry of a pagination bar. Ellipsis entries have Number 0.
type PageLink struct {
	Number   int  `json:"number,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// PageWindow returns the links of a pagination bar for current out of
// total pages: always the first and last page, a window around current, and
// ellipsis markers for the gaps. It returns nil when there is at most one
// page.
func PageWindow(current, total, maxVisible int) []PageLink {
	if total <= 1 {
		return nil
	}
	if maxVisible < 3 {
		maxVisible = DefaultVisiblePages
	}
	current = max(1, min(current, total))
	half := maxVisible / 2

	var links []PageLink
	num := func(n int) {
		links = append(links, PageLink{Number: n, Current: n == current})
	}
	gap := func() {
		links = append(links, PageLink{Ellipsis: true})
	}

	if total <= maxVisible {
		for i := 1; i <= total; i++ {
			num(i)
		}
		return links
	}

	num(1)
	switch {
	case current <= half+1:
		for i := 2; i <= min(maxVisible-1, total-1); i++ {
			num(i)
		}
		gap()
	case current >= total-half:
		gap()
		for i := max(2, total-maxVisible+2); i < total; i++ {
			num(i)
		}
	default:
		gap()
		for i := current - half + 1; i <= current+half-1; i++ {
			if i > 1 && i < total {
				num(i)
			}
		}
		gap()
	}
	num(total)
	return links
}
