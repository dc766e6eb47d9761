package engine

// PageButton is one entry of the pagination control.
type PageButton struct {
	// Page is the 1-based page number, 0 for an ellipsis.
	Page     int  `json:"page"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

// PageButtons returns the page-button set for total pages.
//
// The window is fixed: page 1, page 2 when total > 1, an ellipsis when
// total > 4, page total-1 when total > 3 and page total when total > 2.
// It does not slide with the current page, so a current page in the
// middle of a long range has no button of its own.
func PageButtons(current, total int) []PageButton {
	if total < 1 {
		total = 1
	}

	buttons := make([]PageButton, 0, 5)
	add := func(page int) {
		buttons = append(buttons, PageButton{Page: page, Current: page == current})
	}

	add(1)
	if total > 1 {
		add(2)
	}
	if total > 4 {
		buttons = append(buttons, PageButton{Ellipsis: true})
	}
	if total > 3 {
		add(total - 1)
	}
	if total > 2 {
		add(total)
	}
	return buttons
}
