package search

import "testing"

var entries = []Entry{
	{ID: "ar1", Name: "Boards of Canada"},
	{ID: "ar2", Name: "Tortoise"},
	{ID: "ar3", Name: "Tycho"},
	{ID: "ar4", Name: "Béla Fleck"},
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"empty query keeps everything", "", []string{"ar1", "ar2", "ar3", "ar4"}},
		{"substring", "canada", []string{"ar1"}},
		{"case insensitive", "TYCHO", []string{"ar3"}},
		{"diacritic insensitive", "bela", []string{"ar4"}},
		{"scattered characters", "trtse", []string{"ar2"}},
		{"no match", "zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tt.query, entries)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.wantIDs))
			}
			for i, e := range got {
				if e.ID != tt.wantIDs[i] {
					t.Errorf("entry %d = %s, want %s", i, e.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestRankBestFirst(t *testing.T) {
	got := Rank("to", entries)
	if len(got) == 0 {
		t.Fatal("no matches")
	}
	if got[0].ID != "ar2" {
		t.Errorf("best match = %s (%s), want ar2", got[0].ID, got[0].Name)
	}
	if len(got[0].MatchedIndexes) == 0 {
		t.Error("missing matched indexes for highlighting")
	}
}

func TestRankEmptyQuery(t *testing.T) {
	if got := Rank("  ", entries); got != nil {
		t.Errorf("rank of blank query = %v, want nil", got)
	}
}
