package recipe

import (
	"encoding/json"
	"testing"
)

func TestFlexFloatDecoding(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`"45"`, 45},
		{`" 45 "`, 45},
		{`null`, 0},
		{`"not a number"`, 0},
		{`[1,2]`, 0},
	}
	for _, tc := range cases {
		var f FlexFloat
		if err := json.Unmarshal([]byte(tc.in), &f); err != nil {
			t.Errorf("unmarshal %s: %v", tc.in, err)
			continue
		}
		if float64(f) != tc.want {
			t.Errorf("FlexFloat(%s) = %v, want %v", tc.in, float64(f), tc.want)
		}
	}
}

func TestFlexIntTruncates(t *testing.T) {
	var i FlexInt
	if err := json.Unmarshal([]byte(`"123.9"`), &i); err != nil {
		t.Fatal(err)
	}
	if int(i) != 123 {
		t.Errorf("FlexInt = %d, want 123", int(i))
	}
}

func TestNutritionFieldAliases(t *testing.T) {
	var n Nutrition
	if err := json.Unmarshal([]byte(`{"calories":"450","carbohydrates":30}`), &n); err != nil {
		t.Fatal(err)
	}
	if float64(n.Calories) != 450 {
		t.Errorf("Calories = %v", n.Calories)
	}
	if float64(n.Carbs) != 30 {
		t.Errorf("Carbs = %v, want 30 (carbohydrates alias)", n.Carbs)
	}

	// The short name wins when both are present.
	if err := json.Unmarshal([]byte(`{"carbs":10,"carbohydrates":30}`), &n); err != nil {
		t.Fatal(err)
	}
	if float64(n.Carbs) != 10 {
		t.Errorf("Carbs = %v, want 10", n.Carbs)
	}
}

func TestRatingsFieldAliases(t *testing.T) {
	cases := []struct {
		in         string
		wantRating float64
		wantCount  int
	}{
		{`{"rating":4.5,"review_count":12}`, 4.5, 12},
		{`{"average":3.8,"count":"7"}`, 3.8, 7},
		{`{"score":5}`, 5, 0},
		{`4.2`, 4.2, 0},
		{`"broken"`, 0, 0},
	}
	for _, tc := range cases {
		var r Ratings
		if err := json.Unmarshal([]byte(tc.in), &r); err != nil {
			t.Errorf("unmarshal %s: %v", tc.in, err)
			continue
		}
		if float64(r.Rating) != tc.wantRating {
			t.Errorf("Rating(%s) = %v, want %v", tc.in, float64(r.Rating), tc.wantRating)
		}
		if int(r.ReviewCount) != tc.wantCount {
			t.Errorf("ReviewCount(%s) = %d, want %d", tc.in, int(r.ReviewCount), tc.wantCount)
		}
	}
}

func TestRecordDecodesDirtyCorpusLine(t *testing.T) {
	line := `{
		"id": "42",
		"title": "Garlic Soup",
		"ingredients": ["garlic", "stock"],
		"times": {"prep": "10", "cook": null, "total": 25},
		"nutrition": {"calories": "390", "carbohydrates": 12},
		"ratings": {"average": 4.1, "count": 33},
		"date_published": "2022-11-01T09:30:00Z"
	}`
	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatal(err)
	}
	if float64(rec.Times.Prep) != 10 || float64(rec.Times.Cook) != 0 || float64(rec.Times.Total) != 25 {
		t.Errorf("times = %+v", rec.Times)
	}
	if float64(rec.Nutrition.Calories) != 390 || float64(rec.Nutrition.Carbs) != 12 {
		t.Errorf("nutrition = %+v", rec.Nutrition)
	}
	if float64(rec.Ratings.Rating) != 4.1 || int(rec.Ratings.ReviewCount) != 33 {
		t.Errorf("ratings = %+v", rec.Ratings)
	}
}
