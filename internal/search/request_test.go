package search

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/capture-logs/capture-logs/internal/model"
)

func TestRequestDecoding(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantPage LooseNumber
		wantSize LooseNumber
	}{
		{"empty object", `{}`, LooseNumber{}, LooseNumber{}},
		{"numbers", `{"page": 2, "size": 50}`, Num(2), Num(50)},
		{"numeric strings", `{"page": "3", "size": " 100 "}`, Num(3), Num(100)},
		{"garbage strings", `{"page": "abc", "size": ""}`, LooseNumber{}, LooseNumber{}},
		{"nulls", `{"page": null, "size": null}`, LooseNumber{}, LooseNumber{}},
		{"booleans", `{"page": true, "size": false}`, Num(1), Num(0)},
		{"containers", `{"page": [1], "size": {"n": 2}}`, LooseNumber{}, LooseNumber{}},
		{"overflowing numbers", `{"page": 1e400, "size": -1e400}`, Num(math.Inf(1)), Num(math.Inf(-1))},
		{"infinity strings", `{"page": "-Infinity", "size": "Infinity"}`, Num(math.Inf(-1)), Num(math.Inf(1))},
		{"overflowing string", `{"size": "1e999"}`, LooseNumber{}, Num(math.Inf(1))},
		{"other inf spellings", `{"page": "inf", "size": "NaN"}`, LooseNumber{}, LooseNumber{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req Request
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.body, err)
			}
			if req.Page != tt.wantPage {
				t.Errorf("page = %+v, want %+v", req.Page, tt.wantPage)
			}
			if req.Size != tt.wantSize {
				t.Errorf("size = %+v, want %+v", req.Size, tt.wantSize)
			}
		})
	}
}

func TestRequestDecoding_GarbageSizeFallsBackToDefault(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(`{"size": "lots"}`), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := EffectiveSize(req.Size); got != 20 {
		t.Errorf("EffectiveSize = %d, want 20", got)
	}
}

func TestLooseNumberMarshal(t *testing.T) {
	b, err := json.Marshal(Request{Field: "Username", Page: Num(2)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"field":"Username","keyword":"","page":2,"size":null}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}
}

func TestRequestDecoding_InfinityClamps(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(`{"page": 1e400, "size": "Infinity"}`), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := EffectiveSize(req.Size); got != model.MaxPageSize {
		t.Errorf("EffectiveSize = %d, want %d", got, model.MaxPageSize)
	}
	if got := EffectivePage(req.Page, 7); got != 7 {
		t.Errorf("EffectivePage = %d, want 7", got)
	}
}

func TestRequestDecoding_TextMembers(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantField   string
		wantKeyword string
		wantErr     bool
	}{
		{"strings", `{"field": "Username", "keyword": "kim"}`, "Username", "kim", false},
		{"missing", `{}`, "", "", false},
		{"nulls", `{"field": null, "keyword": null}`, "", "", false},
		{"falsy field", `{"field": 0, "keyword": 12}`, "", "", false},
		{"false field", `{"field": false}`, "", "", false},
		{"numeric field", `{"field": 7}`, "", "", true},
		{"array field", `{"field": ["Username"]}`, "", "", true},
		{"numeric keyword", `{"field": "Username", "keyword": 5}`, "Username", "", true},
		{"top-level array", `[{"field": 7}]`, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req Request
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.body, err)
			}
			if req.Field != tt.wantField || req.Keyword != tt.wantKeyword {
				t.Errorf("field, keyword = %q, %q, want %q, %q", req.Field, req.Keyword, tt.wantField, tt.wantKeyword)
			}

			_, err := NewService(&fakeStore{rows: fakeRows(2)}, nil).Search(context.Background(), req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Search err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestDecoding_RejectsScalars(t *testing.T) {
	for _, body := range []string{`42`, `"x"`, `true`} {
		var req Request
		if err := json.Unmarshal([]byte(body), &req); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", body)
		}
	}
}

func TestSearch_KeywordTypeIgnoredWithoutField(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(`{"keyword": 5}`), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	page, err := NewService(&fakeStore{rows: fakeRows(3)}, nil).Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", page.TotalCount)
	}
}
