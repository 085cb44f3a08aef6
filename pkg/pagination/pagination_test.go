package pagination_test

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/lehen20/dpr-auto/pkg/pagination"
)

func testConfig(t *testing.T) pagination.Config {
	t.Helper()
	cfg := pagination.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	cfg := testConfig(t)
	if cfg.DefaultPageSize != 20 || cfg.MaxPageSize != 100 {
		t.Errorf("defaults = %+v, want 20/100", cfg)
	}
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("PAGE_DEFAULT", "5")
	t.Setenv("PAGE_MAX", "50")

	cfg := pagination.Config{}
	err := cfg.Finalize(&pagination.ConfigEnv{DefaultPageSize: "PAGE_DEFAULT", MaxPageSize: "PAGE_MAX"})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if cfg.DefaultPageSize != 5 || cfg.MaxPageSize != 50 {
		t.Errorf("config = %+v, want 5/50", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("default above max accepted")
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		expr string
		want []pagination.SortField
	}{
		{"", nil},
		{"name", []pagination.SortField{{Field: "name"}}},
		{"name,-uploaded_at", []pagination.SortField{
			{Field: "name"},
			{Field: "uploaded_at", Descending: true},
		}},
		{" name , , - ", []pagination.SortField{{Field: "name"}}},
	}

	for _, tt := range tests {
		if got := pagination.ParseSort(tt.expr); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseSort(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	cfg := testConfig(t)

	values := url.Values{}
	values.Set("page", "3")
	values.Set("page_size", "10")
	values.Set("search", "acme")
	values.Set("sort", "-uploaded_at")

	req := pagination.PageRequestFromQuery(values, cfg)
	if req.Page != 3 || req.PageSize != 10 {
		t.Errorf("page/size = %d/%d, want 3/10", req.Page, req.PageSize)
	}
	if req.Search == nil || *req.Search != "acme" {
		t.Errorf("Search = %v, want acme", req.Search)
	}
	if len(req.Sort) != 1 || !req.Sort[0].Descending {
		t.Errorf("Sort = %v, want descending uploaded_at", req.Sort)
	}
	if req.Offset() != 20 {
		t.Errorf("Offset() = %d, want 20", req.Offset())
	}
}

func TestPageRequestNormalize(t *testing.T) {
	cfg := testConfig(t)

	req := pagination.PageRequest{Page: -2, PageSize: 0}
	req.Normalize(cfg)
	if req.Page != 1 || req.PageSize != cfg.DefaultPageSize {
		t.Errorf("normalized = %d/%d, want 1/%d", req.Page, req.PageSize, cfg.DefaultPageSize)
	}

	req = pagination.PageRequest{Page: 1, PageSize: 500}
	req.Normalize(cfg)
	if req.PageSize != cfg.MaxPageSize {
		t.Errorf("PageSize = %d, want capped at %d", req.PageSize, cfg.MaxPageSize)
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page := pagination.Slice(items, pagination.PageRequest{Page: 2, PageSize: 2})
	if !reflect.DeepEqual(page.Data, []int{3, 4}) {
		t.Errorf("Data = %v, want [3 4]", page.Data)
	}
	if page.Total != 5 || page.TotalPages != 3 {
		t.Errorf("Total/TotalPages = %d/%d, want 5/3", page.Total, page.TotalPages)
	}

	// A page past the end is empty, not an error.
	page = pagination.Slice(items, pagination.PageRequest{Page: 9, PageSize: 2})
	if len(page.Data) != 0 {
		t.Errorf("Data = %v, want empty", page.Data)
	}

	page = pagination.Slice([]int{}, pagination.PageRequest{Page: 1, PageSize: 2})
	if page.Data == nil || page.TotalPages != 1 {
		t.Errorf("empty input: Data = %v, TotalPages = %d", page.Data, page.TotalPages)
	}
}
