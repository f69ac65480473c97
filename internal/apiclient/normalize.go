package apiclient

import "encoding/json"

type ListStatus int

const (
	ListEmpty ListStatus = iota
	ListOk
)

// ListResult is the normalized outcome of any list endpoint.
type ListResult[T any] struct {
	Status ListStatus
	Items  []T
}

func (r ListResult[T]) Ok() bool {
	return r.Status == ListOk
}

// NormalizeList accepts a bare array, a {"results": [...]} page or a
// {"files": [...]} wrapper. Any other shape yields an empty result.
func NormalizeList[T any](raw []byte) ListResult[T] {
	var items []T
	if err := json.Unmarshal(raw, &items); err == nil && items != nil {
		return ListResult[T]{Status: ListOk, Items: items}
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return ListResult[T]{Status: ListEmpty, Items: []T{}}
	}
	for _, key := range []string{"results", "files"} {
		inner, ok := wrapped[key]
		if !ok {
			continue
		}
		var items []T
		if err := json.Unmarshal(inner, &items); err == nil && items != nil {
			return ListResult[T]{Status: ListOk, Items: items}
		}
	}
	return ListResult[T]{Status: ListEmpty, Items: []T{}}
}
