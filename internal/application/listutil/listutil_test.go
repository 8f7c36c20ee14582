package listutil

import (
	"net/url"
	"reflect"
	"testing"
)

// TestParsePageParams_Defaults verifies default page params when no query values provided.
func TestParsePageParams_Defaults(t *testing.T) {
	p := ParsePageParams(url.Values{})
	if p.Page != 1 {
		t.Errorf("expected page 1, got %d", p.Page)
	}
	if p.PerPage != DefaultPerPage {
		t.Errorf("expected per_page %d, got %d", DefaultPerPage, p.PerPage)
	}
}

// TestParsePageParams_Valid verifies correct parsing of valid page and per_page values.
func TestParsePageParams_Valid(t *testing.T) {
	p := ParsePageParams(url.Values{"page": {"3"}, "per_page": {"50"}})
	if p.Page != 3 || p.PerPage != 50 {
		t.Errorf("expected page 3 per_page 50, got %+v", p)
	}
}

// TestParsePageParams_Invalid verifies fallbacks for out-of-range values.
func TestParsePageParams_Invalid(t *testing.T) {
	p := ParsePageParams(url.Values{"page": {"-1"}, "per_page": {"25"}})
	if p.Page != 1 {
		t.Errorf("expected page 1 for negative input, got %d", p.Page)
	}
	if p.PerPage != DefaultPerPage {
		t.Errorf("expected default per_page for 25, got %d", p.PerPage)
	}
}

// TestNewPageInfo_Clamps verifies page clamping and row numbers.
func TestNewPageInfo_Clamps(t *testing.T) {
	info := NewPageInfo(9, 10, 25)
	if info.Page != 3 || info.TotalPages != 3 {
		t.Errorf("expected page 3 of 3, got %+v", info)
	}
	if info.StartRow() != 21 || info.EndRow() != 25 {
		t.Errorf("expected rows 21-25, got %d-%d", info.StartRow(), info.EndRow())
	}
	if !info.HasPrev() || info.HasNext() {
		t.Errorf("unexpected prev/next for %+v", info)
	}

	empty := NewPageInfo(1, 10, 0)
	if empty.StartRow() != 0 || empty.EndRow() != 0 || empty.ShowPagination() {
		t.Errorf("unexpected empty info %+v", empty)
	}
}

// TestPaginate verifies slicing of in-memory lists.
func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	page, info := Paginate(items, PageParams{Page: 2, PerPage: 2})
	if !reflect.DeepEqual(page, []int{3, 4}) {
		t.Errorf("page 2 = %v", page)
	}
	if info.Total != 5 || info.TotalPages != 3 {
		t.Errorf("unexpected info %+v", info)
	}
	page, _ = Paginate(items, PageParams{Page: 3, PerPage: 2})
	if !reflect.DeepEqual(page, []int{5}) {
		t.Errorf("page 3 = %v", page)
	}
	page, _ = Paginate([]int{}, PageParams{Page: 1, PerPage: 2})
	if len(page) != 0 {
		t.Errorf("expected empty page, got %v", page)
	}
}
