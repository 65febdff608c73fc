package transport

// FilterRequest replaces a store's filter state and search term.
type FilterRequest[F any] struct {
	Filters F      `json:"filters"`
	Search  string `json:"search"`
}

// FilterState echoes the stored filter state with its result.
type FilterState[F any, T any] struct {
	Filters F      `json:"filters"`
	Search  string `json:"search"`
	Items   []T    `json:"items"`
}
