package apiclient

import (
	"testing"

	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantStatus ListStatus
		wantIDs    []int64
	}{
		{name: "bare array", raw: `[{"id":1},{"id":2}]`, wantStatus: ListOk, wantIDs: []int64{1, 2}},
		{name: "paginated", raw: `{"count":2,"next":null,"results":[{"id":3},{"id":4}]}`, wantStatus: ListOk, wantIDs: []int64{3, 4}},
		{name: "legacy files wrapper", raw: `{"files":[{"id":5}]}`, wantStatus: ListOk, wantIDs: []int64{5}},
		{name: "empty array", raw: `[]`, wantStatus: ListOk},
		{name: "unknown object", raw: `{"students":[{"id":1}]}`, wantStatus: ListEmpty},
		{name: "results wrong type", raw: `{"results":"nope"}`, wantStatus: ListEmpty},
		{name: "null", raw: `null`, wantStatus: ListEmpty},
		{name: "not json", raw: `<html>`, wantStatus: ListEmpty},
		{name: "scalar", raw: `42`, wantStatus: ListEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeList[student.File]([]byte(tt.raw))
			if got.Status != tt.wantStatus {
				t.Fatalf("status = %v, want %v", got.Status, tt.wantStatus)
			}
			if got.Items == nil {
				t.Fatal("items must never be nil")
			}
			if len(got.Items) != len(tt.wantIDs) {
				t.Fatalf("items = %+v", got.Items)
			}
			for i, id := range tt.wantIDs {
				if got.Items[i].ID != id {
					t.Fatalf("item %d id = %d, want %d", i, got.Items[i].ID, id)
				}
			}
		})
	}
}
