// Package recipe defines the normalized recipe record produced by the
// external parser, and the stores that load full records on demand. The
// index deliberately excludes most of these attributes, so rich filtering
// re-reads them from the corpus.
package recipe

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexFloat is a float64 that tolerates dirty upstream JSON: numbers,
// numeric strings, and null all decode; anything else defaults to zero.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = 0
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = FlexFloat(v)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			*f = FlexFloat(v)
		}
	}
	return nil
}

// FlexInt is an int with the same tolerant decoding as FlexFloat. Values
// like "123.0" round down through float conversion.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	var f FlexFloat
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*i = FlexInt(int(f))
	return nil
}

// Times holds prep, cook, and total durations in minutes.
type Times struct {
	Prep  FlexFloat `json:"prep"`
	Cook  FlexFloat `json:"cook"`
	Total FlexFloat `json:"total"`
}

// Nutrition holds per-serving nutrition values. Upstream data uses either
// "carbs" or "carbohydrates"; both decode into Carbs.
type Nutrition struct {
	Calories FlexFloat
	Protein  FlexFloat
	Carbs    FlexFloat
	Fat      FlexFloat
	Fiber    FlexFloat
	Sugar    FlexFloat
	Sodium   FlexFloat
}

func (n *Nutrition) UnmarshalJSON(data []byte) error {
	var aux struct {
		Calories      FlexFloat `json:"calories"`
		Protein       FlexFloat `json:"protein"`
		Carbs         FlexFloat `json:"carbs"`
		Carbohydrates FlexFloat `json:"carbohydrates"`
		Fat           FlexFloat `json:"fat"`
		Fiber         FlexFloat `json:"fiber"`
		Sugar         FlexFloat `json:"sugar"`
		Sodium        FlexFloat `json:"sodium"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}
	n.Calories = aux.Calories
	n.Protein = aux.Protein
	n.Carbs = aux.Carbs
	if n.Carbs == 0 {
		n.Carbs = aux.Carbohydrates
	}
	n.Fat = aux.Fat
	n.Fiber = aux.Fiber
	n.Sugar = aux.Sugar
	n.Sodium = aux.Sodium
	return nil
}

// Ratings holds the average rating and review count. Upstream data names
// the average "rating", "average", or "score", and the count "review_count"
// or "count".
type Ratings struct {
	Rating      FlexFloat
	ReviewCount FlexInt
}

func (r *Ratings) UnmarshalJSON(data []byte) error {
	r.Rating = 0
	r.ReviewCount = 0
	var aux struct {
		Rating      FlexFloat `json:"rating"`
		Average     FlexFloat `json:"average"`
		Score       FlexFloat `json:"score"`
		ReviewCount FlexInt   `json:"review_count"`
		Count       FlexInt   `json:"count"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		// Some records carry a bare numeric rating instead of an object.
		var f FlexFloat
		if ferr := f.UnmarshalJSON(data); ferr == nil {
			r.Rating = f
		}
		return nil
	}
	r.Rating = aux.Rating
	if r.Rating == 0 {
		r.Rating = aux.Average
	}
	if r.Rating == 0 {
		r.Rating = aux.Score
	}
	r.ReviewCount = aux.ReviewCount
	if r.ReviewCount == 0 {
		r.ReviewCount = aux.Count
	}
	return nil
}

// Record is one normalized recipe as emitted by the external parser, one
// JSON object per corpus line.
type Record struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Ingredients   []string  `json:"ingredients"`
	Instructions  []string  `json:"instructions"`
	Times         Times     `json:"times"`
	Cuisine       []string  `json:"cuisine"`
	Category      []string  `json:"category"`
	Tools         []string  `json:"tools"`
	Yield         string    `json:"yield"`
	Author        string    `json:"author"`
	Keywords      []string  `json:"keywords"`
	DatePublished string    `json:"date_published"`
	Image         string    `json:"image"`
	Difficulty    string    `json:"difficulty"`
	Nutrition     Nutrition `json:"nutrition"`
	Ratings       Ratings   `json:"ratings"`
}
