package flows

// page clamps a requested page into [0, pages-1] for a list of total items
// and returns the slice bounds plus the clamped page and page count. An
// empty list yields a single empty page.
func page(total, requested, size int) (start, end, pageNum, pages int) {
	if size <= 0 {
		size = 10
	}
	pages = (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	pageNum = requested
	if pageNum < 0 {
		pageNum = 0
	}
	if pageNum > pages-1 {
		pageNum = pages - 1
	}
	start = pageNum * size
	end = start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return start, end, pageNum, pages
}
