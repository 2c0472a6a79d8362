package pagination

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults applied", 0, 0, 1, DefaultLimit, 0},
		{"negative page clamped", -3, 10, 1, 10, 0},
		{"limit above max clamped", 2, 500, 2, MaxLimit, 100},
		{"valid values kept", 3, 25, 3, 25, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := Normalize(tt.page, tt.limit)
			if params.Page != tt.wantPage || params.Limit != tt.wantLimit || params.Offset != tt.wantOffset {
				t.Errorf("Normalize(%d, %d) = %+v, want page=%d limit=%d offset=%d",
					tt.page, tt.limit, params, tt.wantPage, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestGetMeta(t *testing.T) {
	tests := []struct {
		name           string
		page           int
		limit          int
		total          int64
		wantTotalPages int
		wantHasNext    bool
		wantHasPrev    bool
	}{
		{"first of three pages", 1, 2, 5, 3, true, false},
		{"middle page", 2, 2, 5, 3, true, true},
		{"last page", 3, 2, 5, 3, false, true},
		{"exact division", 2, 10, 20, 2, false, true},
		{"empty result", 1, 20, 0, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := GetMeta(Normalize(tt.page, tt.limit), tt.total)
			if meta.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", meta.TotalPages, tt.wantTotalPages)
			}
			if meta.HasNext != tt.wantHasNext || meta.HasPrev != tt.wantHasPrev {
				t.Errorf("HasNext=%v HasPrev=%v, want %v %v", meta.HasNext, meta.HasPrev, tt.wantHasNext, tt.wantHasPrev)
			}
			if meta.Total != tt.total {
				t.Errorf("Total = %d, want %d", meta.Total, tt.total)
			}
		})
	}
}
