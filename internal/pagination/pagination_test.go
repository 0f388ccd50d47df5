package pagination

import "testing"

func TestPageRequestDefaults(t *testing.T) {
	tests := []struct {
		name         string
		in           PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"empty", PageRequest{}, 1, 50},
		{"explicit", PageRequest{Page: 3, PageSize: 10}, 3, 10},
		{"clamped", PageRequest{Page: 1, PageSize: 1000}, 1, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Defaults()
			if req.Page != tt.wantPage || req.PageSize != tt.wantPageSize {
				t.Errorf("Defaults() = (%d, %d), want (%d, %d)", req.Page, req.PageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	req := PageRequest{Page: 4, PageSize: 25}
	if got := req.Offset(); got != 75 {
		t.Errorf("Offset() = %d, want 75", got)
	}
}

func TestTotalPages(t *testing.T) {
	for _, pageSize := range []int{1, 7, 50, 200} {
		for total := int64(0); total <= 1000; total++ {
			got := TotalPages(total, pageSize)
			want := int((total + int64(pageSize) - 1) / int64(pageSize))
			if want < 1 {
				want = 1
			}
			if got != want {
				t.Fatalf("TotalPages(%d, %d) = %d, want %d", total, pageSize, got, want)
			}
		}
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[int](nil, 1, 50, 0)
	if resp.Data == nil {
		t.Error("Data should be an empty slice, not nil")
	}
	if resp.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", resp.TotalPages)
	}

	resp = NewPageResponse([]int{1, 2}, 2, 2, 5)
	if resp.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", resp.TotalPages)
	}
}
