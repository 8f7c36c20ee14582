package conference_test

import (
	"reflect"
	"testing"

	"confsched/internal/domain/conference"
)

// TestConference_Validate tests validation of Conference.
func TestConference_Validate(t *testing.T) {
	tests := []struct {
		name    string
		conf    conference.Conference
		wantErr error
	}{
		{
			name:    "valid conference",
			conf:    conference.Conference{Name: "ICODSA 2025", Series: conference.SeriesICODSA, StartDate: "2025-06-10", EndDate: "2025-06-12"},
			wantErr: nil,
		},
		{
			name:    "single day",
			conf:    conference.Conference{Name: "ICICYTA", Series: conference.SeriesICICYTA, StartDate: "2025-06-10", EndDate: "2025-06-10"},
			wantErr: nil,
		},
		{
			name:    "empty name",
			conf:    conference.Conference{Name: " ", Series: conference.SeriesICODSA, StartDate: "2025-06-10", EndDate: "2025-06-12"},
			wantErr: conference.ErrEmptyName,
		},
		{
			name:    "unknown series",
			conf:    conference.Conference{Name: "X", Series: "OTHER", StartDate: "2025-06-10", EndDate: "2025-06-12"},
			wantErr: conference.ErrInvalidSeries,
		},
		{
			name:    "bad start",
			conf:    conference.Conference{Name: "X", Series: conference.SeriesICODSA, StartDate: "soon", EndDate: "2025-06-12"},
			wantErr: conference.ErrInvalidStart,
		},
		{
			name:    "bad end",
			conf:    conference.Conference{Name: "X", Series: conference.SeriesICODSA, StartDate: "2025-06-10", EndDate: ""},
			wantErr: conference.ErrInvalidEnd,
		},
		{
			name:    "end before start",
			conf:    conference.Conference{Name: "X", Series: conference.SeriesICODSA, StartDate: "2025-01-05", EndDate: "2025-01-01"},
			wantErr: conference.ErrEndBeforeStart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conf.Validate()
			if err != tt.wantErr {
				t.Errorf("Conference.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestParseSeries tests case-insensitive series parsing.
func TestParseSeries(t *testing.T) {
	if s, ok := conference.ParseSeries(" icodsa "); !ok || s != conference.SeriesICODSA {
		t.Errorf("ParseSeries(icodsa) = %q, %v", s, ok)
	}
	if _, ok := conference.ParseSeries("ieee"); ok {
		t.Error("expected ieee to be rejected")
	}
}

// TestFilterSeries_RejectsInvertedRange covers the ICODSA example with end before start.
func TestFilterSeries_RejectsInvertedRange(t *testing.T) {
	list := []conference.Conference{
		{ID: 1, Year: "2025", Series: conference.SeriesICODSA, StartDate: "2025-01-05", EndDate: "2025-01-01"},
		{ID: 2, Year: "2024", Series: conference.SeriesICODSA, StartDate: "2024-05-01", EndDate: "2024-05-03"},
		{ID: 3, Year: "2023", Series: conference.SeriesICICYTA, StartDate: "2023-05-01", EndDate: "2023-05-03"},
		{ID: 4, Year: "2022", Series: conference.SeriesICODSA, StartDate: "not a date", EndDate: "2022-05-03"},
	}

	got := conference.FilterSeries(list, conference.SeriesICODSA)
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected only conference 2, got %+v", got)
	}

	years := conference.YearLabels(got)
	if !reflect.DeepEqual(years, []string{"2024"}) {
		t.Errorf("expected years [2024], got %v", years)
	}
}

// TestYearLabels_SortsDescendingNumerically tests label ordering and dedup.
func TestYearLabels_SortsDescendingNumerically(t *testing.T) {
	list := []conference.Conference{
		{Year: "2023"}, {Year: "2025"}, {Year: "999"}, {Year: "2025"}, {Year: ""}, {Year: "TBA"},
	}
	got := conference.YearLabels(list)
	want := []string{"2025", "2023", "999", "TBA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("YearLabels() = %v, want %v", got, want)
	}
}

// TestSelectYear tests selection and the nil result.
func TestSelectYear(t *testing.T) {
	list := []conference.Conference{{ID: 1, Year: "2024"}, {ID: 2, Year: "2025"}}
	if c := conference.SelectYear(list, "2025"); c == nil || c.ID != 2 {
		t.Errorf("expected conference 2, got %+v", c)
	}
	if c := conference.SelectYear(list, "2030"); c != nil {
		t.Errorf("expected nil, got %+v", c)
	}
}

// TestPipeline_DefaultsToNewestYear tests the combined pipeline.
func TestPipeline_DefaultsToNewestYear(t *testing.T) {
	list := []conference.Conference{
		{ID: 1, Year: "2024", Series: conference.SeriesICICYTA, StartDate: "2024-09-01", EndDate: "2024-09-02"},
		{ID: 2, Year: "2025", Series: conference.SeriesICICYTA, StartDate: "2025-09-01", EndDate: "2025-09-02"},
	}
	sel := conference.Pipeline(list, conference.SeriesICICYTA, "")
	if sel.Selected == nil || sel.Selected.ID != 2 {
		t.Fatalf("expected newest conference selected, got %+v", sel.Selected)
	}
	sel = conference.Pipeline(list, conference.SeriesICICYTA, "2024")
	if sel.Selected == nil || sel.Selected.ID != 1 {
		t.Fatalf("expected 2024 conference selected, got %+v", sel.Selected)
	}
	sel = conference.Pipeline(nil, conference.SeriesICICYTA, "")
	if sel.Selected != nil || len(sel.Years) != 0 {
		t.Errorf("expected empty selection, got %+v", sel)
	}
}
