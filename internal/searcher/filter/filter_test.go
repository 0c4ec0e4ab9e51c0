package filter

import (
	"testing"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/recipe"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func bptr(v bool) *bool       { return &v }
func sptr(v string) *string   { return &v }

func sampleRecord() *recipe.Record {
	return &recipe.Record{
		ID:            "1",
		Title:         "Garlic Butter Chicken",
		Description:   "A quick weeknight dinner",
		Ingredients:   []string{"chicken thighs", "butter", "garlic"},
		Instructions:  []string{"brown the chicken", "bake for 20 minutes"},
		Times:         recipe.Times{Prep: 10, Cook: 25, Total: 35},
		Cuisine:       []string{"French"},
		Category:      []string{"Main Course"},
		Tools:         []string{"oven"},
		Yield:         "serves 4",
		Author:        "Jane Cook",
		Keywords:      []string{"comfort food", "chicken"},
		DatePublished: "2023-05-10T00:00:00Z",
		Image:         "https://example.com/img.jpg",
		Difficulty:    "Easy",
		Nutrition:     recipe.Nutrition{Calories: 450, Protein: 32},
		Ratings:       recipe.Ratings{Rating: 4.5, ReviewCount: 120},
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse(`{"max_total_mins": 30}`); err == nil {
		t.Error("misspelled filter key should be rejected")
	}
	if _, err := Parse(`{"max_total_minutes": 30}`); err != nil {
		t.Errorf("valid filter rejected: %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse("  ")
	if err != nil {
		t.Fatal(err)
	}
	if f != nil {
		t.Errorf("empty input parsed to %+v, want nil", f)
	}
	if !f.IsZero() {
		t.Error("nil Filters should report IsZero")
	}
}

func TestMatchTimeBounds(t *testing.T) {
	rec := sampleRecord()

	cases := []struct {
		name string
		f    Filters
		want bool
	}{
		{"under max total", Filters{MaxTotalMinutes: fptr(60)}, true},
		{"over max total", Filters{MaxTotalMinutes: fptr(30)}, false},
		{"exactly max total", Filters{MaxTotalMinutes: fptr(35)}, true},
		{"zero max total excludes", Filters{MaxTotalMinutes: fptr(0)}, false},
		{"min total met", Filters{MinTotalMinutes: fptr(30)}, true},
		{"min total unmet", Filters{MinTotalMinutes: fptr(60)}, false},
		{"prep and cook band", Filters{MaxPrepMinutes: fptr(15), MinCookMinutes: fptr(20)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Match(rec); got != tc.want {
				t.Errorf("Match = %v, want %v", got, tc.want)
			}
		})
	}
}

// Records that never reported an attribute compare as zero: max bounds admit
// them, min bounds exclude them.
func TestMatchMissingNumericDefaultsToZero(t *testing.T) {
	rec := &recipe.Record{ID: "bare", Title: "Mystery Dish"}

	if !(&Filters{MaxTotalMinutes: fptr(30)}).Match(rec) {
		t.Error("max bound should admit a record with no time data")
	}
	if (&Filters{MinTotalMinutes: fptr(1)}).Match(rec) {
		t.Error("min bound should exclude a record with no time data")
	}
	if !(&Filters{MaxCalories: fptr(100)}).Match(rec) {
		t.Error("max calorie bound should admit a record with no nutrition")
	}
	if (&Filters{MinRating: fptr(1)}).Match(rec) {
		t.Error("min rating should exclude an unrated record")
	}
}

func TestMatchStringFilters(t *testing.T) {
	rec := sampleRecord()

	cases := []struct {
		name string
		f    Filters
		want bool
	}{
		{"cuisine exact case-insensitive", Filters{Cuisine: []string{"french"}}, true},
		{"cuisine no match", Filters{Cuisine: []string{"thai"}}, false},
		{"cuisine any-of", Filters{Cuisine: []string{"thai", "FRENCH"}}, true},
		{"ingredient exact element", Filters{Ingredients: []string{"butter"}}, true},
		{"ingredient is not substring", Filters{Ingredients: []string{"chicken"}}, false},
		{"ingredient full element", Filters{Ingredients: []string{"chicken thighs"}}, true},
		{"difficulty substring", Filters{Difficulty: []string{"eas"}}, true},
		{"category exact", Filters{Category: []string{"main course"}}, true},
		{"meal type over title", Filters{MealType: []string{"dinner"}}, true},
		{"cooking method over instructions", Filters{CookingMethod: []string{"bake"}}, true},
		{"cooking method absent", Filters{CookingMethod: []string{"grill"}}, false},
		{"tools exact", Filters{Tools: []string{"Oven"}}, true},
		{"author substring", Filters{Author: []string{"jane"}}, true},
		{"keyword in list", Filters{Keywords: []string{"comfort food"}}, true},
		{"keyword substring of title", Filters{Keywords: []string{"garlic"}}, true},
		{"keyword absent", Filters{Keywords: []string{"vegan"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Match(rec); got != tc.want {
				t.Errorf("Match = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatchRatingsAndNutrition(t *testing.T) {
	rec := sampleRecord()

	if !(&Filters{MinRating: fptr(4), MinReviewCount: iptr(100)}).Match(rec) {
		t.Error("well-rated record should pass")
	}
	if (&Filters{MinRating: fptr(4.6)}).Match(rec) {
		t.Error("min rating above record should fail")
	}
	if (&Filters{MaxRating: fptr(4)}).Match(rec) {
		t.Error("max rating below record should fail")
	}
	if !(&Filters{MaxCalories: fptr(500), MinProtein: fptr(30)}).Match(rec) {
		t.Error("nutrition band should pass")
	}
	if (&Filters{MaxCalories: fptr(400)}).Match(rec) {
		t.Error("calorie cap below record should fail")
	}
}

func TestMatchYield(t *testing.T) {
	rec := sampleRecord() // "serves 4"

	if !(&Filters{MinYield: fptr(4)}).Match(rec) {
		t.Error("yield 4 should satisfy min 4")
	}
	if (&Filters{MinYield: fptr(6)}).Match(rec) {
		t.Error("yield 4 should fail min 6")
	}
	if !(&Filters{MaxYield: fptr(4)}).Match(rec) {
		t.Error("yield 4 should satisfy max 4")
	}

	rec.Yield = "a generous batch"
	if (&Filters{MinYield: fptr(2)}).Match(rec) {
		t.Error("numberless yield should fail a min bound")
	}
	if !(&Filters{MaxYield: fptr(2)}).Match(rec) {
		t.Error("numberless yield should pass a max bound")
	}

	rec.Yield = ""
	if !(&Filters{MinYield: fptr(2)}).Match(rec) {
		t.Error("empty yield should pass")
	}
}

func TestMatchDates(t *testing.T) {
	rec := sampleRecord() // published 2023-05-10

	if !(&Filters{MinPublicationDate: sptr("2023-01-01")}).Match(rec) {
		t.Error("record after min date should pass")
	}
	if (&Filters{MinPublicationDate: sptr("2024-01-01")}).Match(rec) {
		t.Error("record before min date should fail")
	}
	if (&Filters{MaxPublicationDate: sptr("2023-01-01")}).Match(rec) {
		t.Error("record after max date should fail")
	}
	if !(&Filters{MaxPublicationDate: sptr("not-a-date")}).Match(rec) {
		t.Error("unparsable bound should be ignored")
	}

	rec.DatePublished = ""
	if !(&Filters{MinPublicationDate: sptr("2023-01-01")}).Match(rec) {
		t.Error("record without a date should pass date filters")
	}
}

func TestMatchHasImageAndCounts(t *testing.T) {
	rec := sampleRecord()

	if !(&Filters{HasImage: bptr(true)}).Match(rec) {
		t.Error("record with image should pass has_image")
	}
	rec.Image = "  "
	if (&Filters{HasImage: bptr(true)}).Match(rec) {
		t.Error("blank image should fail has_image")
	}
	if !(&Filters{HasImage: bptr(false)}).Match(rec) {
		t.Error("has_image false constrains nothing")
	}

	if !(&Filters{MinIngredients: iptr(3), MaxInstructions: iptr(2)}).Match(rec) {
		t.Error("count band should pass")
	}
	if (&Filters{MinInstructions: iptr(5)}).Match(rec) {
		t.Error("min instruction count above record should fail")
	}
}

func TestCacheKeyCanonical(t *testing.T) {
	a, err := Parse(`{"cuisine": ["french"], "max_total_minutes": 30}`)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(`{"max_total_minutes": 30, "cuisine": ["french"]}`)
	if err != nil {
		t.Fatal(err)
	}
	if a.CacheKey() != b.CacheKey() {
		t.Errorf("key order changed the cache key: %q vs %q", a.CacheKey(), b.CacheKey())
	}

	c, _ := Parse(`{"max_total_minutes": 45, "cuisine": ["french"]}`)
	if a.CacheKey() == c.CacheKey() {
		t.Error("different filters produced the same cache key")
	}
}

func TestTimeOnly(t *testing.T) {
	timeOnly := &Filters{MaxTotalMinutes: fptr(30), MinPrepMinutes: fptr(5)}
	if !timeOnly.TimeOnly() {
		t.Error("time bounds only should report TimeOnly")
	}
	mixed := &Filters{MaxTotalMinutes: fptr(30), Cuisine: []string{"thai"}}
	if mixed.TimeOnly() {
		t.Error("mixed filters should not report TimeOnly")
	}
	var empty *Filters
	if empty.TimeOnly() {
		t.Error("empty filters are not time-only")
	}
}
