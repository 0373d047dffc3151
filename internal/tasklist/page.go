package tasklist

import "taskmgr/internal/service"

// View is one page of the task list.
type View struct {
	Page       int
	TotalPages int
	Total      int
	// Offset is the index in the full list of the first item on the page.
	Offset int
	Items  []service.Task
}

// TotalPages returns ceil(n/PageSize), with a minimum of one page so an
// empty list still renders.
func TotalPages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// Paginate returns page (1-based, clamped) of tasks.
func Paginate(tasks []service.Task, page int) View {
	total := TotalPages(len(tasks))
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	end := min(start+PageSize, len(tasks))
	if start > end {
		start = end
	}
	return View{
		Page:       page,
		TotalPages: total,
		Total:      len(tasks),
		Offset:     start,
		Items:      append([]service.Task(nil), tasks[start:end]...),
	}
}

// HasPrev reports whether a previous page exists.
func (v View) HasPrev() bool { return v.Page > 1 }

// HasNext reports whether a following page exists.
func (v View) HasNext() bool { return v.Page < v.TotalPages }
