package listquery

import (
	"fmt"
	"reflect"
	"testing"
)

type talk struct {
	Title       string
	Speaker     string
	Affiliation string
}

func talkFields(t talk) []string {
	return []string{t.Title, t.Speaker, t.Affiliation}
}

func makeTalks(n int) []talk {
	talks := make([]talk, 0, n)
	for i := 0; i < n; i++ {
		talks = append(talks, talk{
			Title:   fmt.Sprintf("Palestra %02d", i+1),
			Speaker: fmt.Sprintf("Palestrante %02d", i+1),
		})
	}
	return talks
}

func TestDeriveFullCollection(t *testing.T) {
	talks := makeTalks(25)
	res := Derive(talks, Query{Page: 1, PerPage: 12}, talkFields)
	if len(res.Items) != 12 {
		t.Fatalf("expected 12 items, got %d", len(res.Items))
	}
	if res.Total != 25 || res.TotalPages != 3 {
		t.Fatalf("expected total=25 totalPages=3, got total=%d totalPages=%d", res.Total, res.TotalPages)
	}
	if res.Items[0].Title != "Palestra 01" {
		t.Fatalf("order not preserved: first item %q", res.Items[0].Title)
	}

	res = Derive(talks, Query{Page: 3, PerPage: 12}, talkFields)
	if len(res.Items) != 1 {
		t.Fatalf("last page should hold the remainder, got %d items", len(res.Items))
	}
	if res.Items[0].Title != "Palestra 25" {
		t.Fatalf("unexpected last item %q", res.Items[0].Title)
	}
}

func TestDeriveItemsLengthInvariant(t *testing.T) {
	talks := makeTalks(37)
	for page := 1; page <= 6; page++ {
		res := Derive(talks, Query{Page: page, PerPage: 12}, talkFields)
		want := res.Total - (page-1)*12
		if want < 0 {
			want = 0
		}
		if want > 12 {
			want = 12
		}
		if len(res.Items) != want {
			t.Fatalf("page %d: expected %d items, got %d", page, want, len(res.Items))
		}
		if res.Total != 37 {
			t.Fatalf("page %d: total must not depend on page, got %d", page, res.Total)
		}
		if res.Page != page {
			t.Fatalf("page %d not echoed, got %d", page, res.Page)
		}
	}
}

func TestDeriveSearchCaseInsensitive(t *testing.T) {
	talks := []talk{
		{Title: "Dança e Parkinson", Speaker: "Ana"},
		{Title: "Fisioterapia", Speaker: "Bruno", Affiliation: "USP"},
		{Title: "Nutrição", Speaker: "Clara Dance"},
	}
	upper := Derive(talks, Query{SearchText: "DANÇA", Page: 1, PerPage: 12}, talkFields)
	lower := Derive(talks, Query{SearchText: "dança", Page: 1, PerPage: 12}, talkFields)
	if !reflect.DeepEqual(upper.Items, lower.Items) {
		t.Fatalf("case-sensitive search: %v vs %v", upper.Items, lower.Items)
	}
	if upper.Total != 1 || upper.TotalPages != 1 {
		t.Fatalf("expected one match, got total=%d totalPages=%d", upper.Total, upper.TotalPages)
	}

	// OR across fields: "dance" matches a speaker, not a title.
	res := Derive(talks, Query{SearchText: "dance", Page: 1, PerPage: 12}, talkFields)
	if res.Total != 1 || res.Items[0].Speaker != "Clara Dance" {
		t.Fatalf("field OR broken: %+v", res)
	}
}

func TestDeriveTwoMatches(t *testing.T) {
	talks := makeTalks(25)
	talks[4].Title = "Dance Therapy I"
	talks[19].Affiliation = "Dance Institute"
	res := Derive(talks, Query{SearchText: "dance", Page: 1, PerPage: 12}, talkFields)
	if res.Total != 2 || res.TotalPages != 1 || len(res.Items) != 2 {
		t.Fatalf("expected 2 matches on one page, got %+v", res)
	}
	if res.Page != 1 {
		t.Fatalf("page not echoed: %d", res.Page)
	}
}

func TestDeriveWhitespaceSearchIsEmpty(t *testing.T) {
	talks := makeTalks(5)
	blank := Derive(talks, Query{SearchText: "   ", Page: 1, PerPage: 12}, talkFields)
	empty := Derive(talks, Query{SearchText: "", Page: 1, PerPage: 12}, talkFields)
	if !reflect.DeepEqual(blank, empty) {
		t.Fatalf("whitespace-only search must behave as empty")
	}
	if blank.Total != 5 {
		t.Fatalf("expected unfiltered total 5, got %d", blank.Total)
	}
}

func TestDeriveExactPageBoundary(t *testing.T) {
	talks := makeTalks(24)
	last := Derive(talks, Query{Page: 2, PerPage: 12}, talkFields)
	if len(last.Items) != 12 {
		t.Fatalf("page == totalPages with total%%perPage == 0 must be full, got %d", len(last.Items))
	}
	past := Derive(talks, Query{Page: 3, PerPage: 12}, talkFields)
	if len(past.Items) != 0 || past.Total != 24 {
		t.Fatalf("page past the end must be empty with total unchanged, got %+v", past)
	}
}

func TestDeriveEmptyCollection(t *testing.T) {
	res := Derive(nil, Query{SearchText: "anything", Page: 1, PerPage: 12}, talkFields)
	if res.Total != 0 || res.TotalPages != 0 || len(res.Items) != 0 {
		t.Fatalf("empty collection must yield an empty result, got %+v", res)
	}
	if res.Page != 1 {
		t.Fatalf("page must still echo, got %d", res.Page)
	}
}

func TestDeriveIdempotent(t *testing.T) {
	talks := makeTalks(30)
	q := Query{SearchText: "palestra 1", Page: 1, PerPage: 12}
	a := Derive(talks, q, talkFields)
	b := Derive(talks, q, talkFields)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("derive is not pure: %+v vs %+v", a, b)
	}
}

func TestDeriveMissingFieldDoesNotMatch(t *testing.T) {
	talks := []talk{{Title: "Sem palestrante"}}
	res := Derive(talks, Query{SearchText: "fulano", Page: 1, PerPage: 12}, talkFields)
	if res.Total != 0 {
		t.Fatalf("empty fields must not match, got %+v", res)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, perPage, want int
	}{
		{0, 12, 0},
		{1, 12, 1},
		{12, 12, 1},
		{13, 12, 2},
		{25, 12, 3},
		{24, 12, 2},
	}
	for _, c := range cases {
		if got := TotalPages(c.total, c.perPage); got != c.want {
			t.Fatalf("TotalPages(%d, %d) = %d, want %d", c.total, c.perPage, got, c.want)
		}
	}
}
