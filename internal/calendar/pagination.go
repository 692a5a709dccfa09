package calendar

// Page описывает одну страницу элементов вместе с метаданными
// для клиентской пагинации.
type Page[T any] struct {
	Items []T
	Total int // общее количество элементов до среза
	Skip  int
	Limit int
}

// Paginate возвращает срез items для окна skip/limit и метаданные.
// При некорректных значениях используются дефолты.
func Paginate[T any](items []T, skip, limit int) Page[T] {
	const defaultLimit = 10

	total := len(items)

	if limit <= 0 {
		limit = defaultLimit
	}
	if skip < 0 {
		skip = 0
	}

	start := skip
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return Page[T]{
		Items: items[start:end],
		Total: total,
		Skip:  skip,
		Limit: limit,
	}
}
