package service

// ListResult is one page of a collection.
// Cursor is empty on the last page. Total counts every match, not just this page.
type ListResult[T any] struct {
	Items  []*T
	Cursor string
	Total  int
}
