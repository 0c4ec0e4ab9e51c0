// Package filter implements structured attribute filtering over full recipe
// records. Filters arrive as a JSON object alongside the search query; every
// field is optional, and a present field constrains even when its value is
// zero. Because the index stores only term statistics, filter evaluation
// loads records from the corpus store.
package filter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Marosko123/food-recipes-ir-pipeline/internal/recipe"
)

// timeKeys are the filter keys the engine can satisfy with its streaming
// time-only scan.
var timeKeys = map[string]bool{
	"max_total_minutes": true,
	"min_total_minutes": true,
	"max_prep_minutes":  true,
	"min_prep_minutes":  true,
	"max_cook_minutes":  true,
	"min_cook_minutes":  true,
}

var yieldNumber = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// Filters is the full filter vocabulary. Pointer and slice fields distinguish
// "absent" from "present with a zero value": {"max_total_minutes": 0} matches
// nothing with a positive total time, while omitting the key matches
// everything.
type Filters struct {
	Cuisine       []string `json:"cuisine,omitempty"`
	Ingredients   []string `json:"ingredients,omitempty"`
	Difficulty    []string `json:"difficulty,omitempty"`
	Category      []string `json:"category,omitempty"`
	MealType      []string `json:"meal_type,omitempty"`
	Dietary       []string `json:"dietary,omitempty"`
	CookingMethod []string `json:"cooking_method,omitempty"`
	Tools         []string `json:"tools,omitempty"`
	Author        []string `json:"author,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`

	MaxTotalMinutes *float64 `json:"max_total_minutes,omitempty"`
	MinTotalMinutes *float64 `json:"min_total_minutes,omitempty"`
	MaxPrepMinutes  *float64 `json:"max_prep_minutes,omitempty"`
	MinPrepMinutes  *float64 `json:"min_prep_minutes,omitempty"`
	MaxCookMinutes  *float64 `json:"max_cook_minutes,omitempty"`
	MinCookMinutes  *float64 `json:"min_cook_minutes,omitempty"`

	MinRating      *float64 `json:"min_rating,omitempty"`
	MaxRating      *float64 `json:"max_rating,omitempty"`
	MinReviewCount *int     `json:"min_review_count,omitempty"`

	MaxCalories *float64 `json:"max_calories,omitempty"`
	MinCalories *float64 `json:"min_calories,omitempty"`
	MaxProtein  *float64 `json:"max_protein,omitempty"`
	MinProtein  *float64 `json:"min_protein,omitempty"`
	MaxCarbs    *float64 `json:"max_carbs,omitempty"`
	MinCarbs    *float64 `json:"min_carbs,omitempty"`
	MaxFat      *float64 `json:"max_fat,omitempty"`
	MinFat      *float64 `json:"min_fat,omitempty"`
	MaxFiber    *float64 `json:"max_fiber,omitempty"`
	MinFiber    *float64 `json:"min_fiber,omitempty"`
	MaxSugar    *float64 `json:"max_sugar,omitempty"`
	MinSugar    *float64 `json:"min_sugar,omitempty"`
	MaxSodium   *float64 `json:"max_sodium,omitempty"`
	MinSodium   *float64 `json:"min_sodium,omitempty"`

	MinYield *float64 `json:"min_yield,omitempty"`
	MaxYield *float64 `json:"max_yield,omitempty"`

	MinPublicationDate *string `json:"min_publication_date,omitempty"`
	MaxPublicationDate *string `json:"max_publication_date,omitempty"`

	HasImage *bool `json:"has_image,omitempty"`

	MinIngredients  *int `json:"min_ingredients,omitempty"`
	MaxIngredients  *int `json:"max_ingredients,omitempty"`
	MinInstructions *int `json:"min_instructions,omitempty"`
	MaxInstructions *int `json:"max_instructions,omitempty"`
}

// Parse decodes a filter JSON object. Unknown keys are rejected so typos in
// filter names fail loudly instead of matching everything.
func Parse(raw string) (*Filters, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	var f Filters
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing filters: %w", err)
	}
	return &f, nil
}

// keys returns the set of JSON keys present in f, via a marshal round trip
// so presence semantics match the wire representation exactly.
func (f *Filters) keys() map[string]json.RawMessage {
	data, err := json.Marshal(f)
	if err != nil {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// IsZero reports whether no filter field is set.
func (f *Filters) IsZero() bool {
	if f == nil {
		return true
	}
	return len(f.keys()) == 0
}

// TimeOnly reports whether every set field is a time bound.
func (f *Filters) TimeOnly() bool {
	m := f.keys()
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !timeKeys[k] {
			return false
		}
	}
	return true
}

// CacheKey returns a canonical representation of the filter set, independent
// of field order in the incoming JSON. Equal filter sets produce equal keys.
func (f *Filters) CacheKey() string {
	m := f.keys()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.Write(m[k])
	}
	return sb.String()
}

// Match reports whether rec satisfies every set filter. Missing numeric
// attributes compare as zero, so a max bound admits records that never
// reported the attribute while a min bound excludes them.
func (f *Filters) Match(rec *recipe.Record) bool {
	if f == nil {
		return true
	}
	if !f.matchTimes(rec) {
		return false
	}
	if !matchMembership(f.Cuisine, rec.Cuisine) {
		return false
	}
	if !matchMembership(f.Ingredients, rec.Ingredients) {
		return false
	}
	if !matchMembership(f.Category, rec.Category) {
		return false
	}
	if !matchMembership(f.Tools, rec.Tools) {
		return false
	}
	if len(f.Difficulty) > 0 && !anySubstring(f.Difficulty, strings.ToLower(rec.Difficulty)) {
		return false
	}
	if len(f.MealType) > 0 {
		text := lowerJoin(rec.Title, rec.Description, strings.Join(rec.Keywords, " "))
		if !anySubstring(f.MealType, text) {
			return false
		}
	}
	if len(f.Dietary) > 0 {
		text := lowerJoin(rec.Title, rec.Description, strings.Join(rec.Keywords, " "), strings.Join(rec.Ingredients, " "))
		if !anySubstring(f.Dietary, text) {
			return false
		}
	}
	if len(f.CookingMethod) > 0 {
		text := lowerJoin(rec.Title, rec.Description, strings.Join(rec.Instructions, " "))
		if !anySubstring(f.CookingMethod, text) {
			return false
		}
	}
	if len(f.Author) > 0 && !anySubstring(f.Author, strings.ToLower(rec.Author)) {
		return false
	}
	if len(f.Keywords) > 0 && !f.matchKeywords(rec) {
		return false
	}

	if !inRange(float64(rec.Ratings.Rating), f.MinRating, f.MaxRating) {
		return false
	}
	if f.MinReviewCount != nil && int(rec.Ratings.ReviewCount) < *f.MinReviewCount {
		return false
	}

	n := rec.Nutrition
	if !inRange(float64(n.Calories), f.MinCalories, f.MaxCalories) {
		return false
	}
	if !inRange(float64(n.Protein), f.MinProtein, f.MaxProtein) {
		return false
	}
	if !inRange(float64(n.Carbs), f.MinCarbs, f.MaxCarbs) {
		return false
	}
	if !inRange(float64(n.Fat), f.MinFat, f.MaxFat) {
		return false
	}
	if !inRange(float64(n.Fiber), f.MinFiber, f.MaxFiber) {
		return false
	}
	if !inRange(float64(n.Sugar), f.MinSugar, f.MaxSugar) {
		return false
	}
	if !inRange(float64(n.Sodium), f.MinSodium, f.MaxSodium) {
		return false
	}

	if !f.matchYield(rec) {
		return false
	}
	if !f.matchDates(rec) {
		return false
	}
	if f.HasImage != nil && *f.HasImage && strings.TrimSpace(rec.Image) == "" {
		return false
	}

	if f.MinIngredients != nil && len(rec.Ingredients) < *f.MinIngredients {
		return false
	}
	if f.MaxIngredients != nil && len(rec.Ingredients) > *f.MaxIngredients {
		return false
	}
	if f.MinInstructions != nil && len(rec.Instructions) < *f.MinInstructions {
		return false
	}
	if f.MaxInstructions != nil && len(rec.Instructions) > *f.MaxInstructions {
		return false
	}
	return true
}

// matchTimes checks only the time bounds. The engine's time-only scan calls
// this directly so it never loads fields it does not need to inspect.
func (f *Filters) matchTimes(rec *recipe.Record) bool {
	if !inRange(float64(rec.Times.Total), f.MinTotalMinutes, f.MaxTotalMinutes) {
		return false
	}
	if !inRange(float64(rec.Times.Prep), f.MinPrepMinutes, f.MaxPrepMinutes) {
		return false
	}
	return inRange(float64(rec.Times.Cook), f.MinCookMinutes, f.MaxCookMinutes)
}

// matchKeywords accepts a record when any requested keyword appears verbatim
// in the record's keyword list or as a substring of its title or description.
func (f *Filters) matchKeywords(rec *recipe.Record) bool {
	kwSet := make(map[string]bool, len(rec.Keywords))
	for _, kw := range rec.Keywords {
		kwSet[strings.ToLower(kw)] = true
	}
	text := lowerJoin(rec.Title, rec.Description)
	for _, kw := range f.Keywords {
		lk := strings.ToLower(kw)
		if kwSet[lk] || strings.Contains(text, lk) {
			return true
		}
	}
	return false
}

// matchYield extracts the first number from the free-text yield string.
// Records with an empty yield pass; records whose yield contains no number
// fail a min bound but pass a max bound.
func (f *Filters) matchYield(rec *recipe.Record) bool {
	if f.MinYield == nil && f.MaxYield == nil {
		return true
	}
	if strings.TrimSpace(rec.Yield) == "" {
		return true
	}
	m := yieldNumber.FindString(rec.Yield)
	if m == "" {
		return f.MinYield == nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return f.MinYield == nil
	}
	return inRange(v, f.MinYield, f.MaxYield)
}

// matchDates compares the record's publication date against the bounds.
// Records with a missing or unparsable date pass, as do unparsable bounds.
func (f *Filters) matchDates(rec *recipe.Record) bool {
	if f.MinPublicationDate == nil && f.MaxPublicationDate == nil {
		return true
	}
	published, err := parseDate(rec.DatePublished)
	if err != nil {
		return true
	}
	if f.MinPublicationDate != nil {
		if bound, err := parseDate(*f.MinPublicationDate); err == nil && published.Before(bound) {
			return false
		}
	}
	if f.MaxPublicationDate != nil {
		if bound, err := parseDate(*f.MaxPublicationDate); err == nil && published.After(bound) {
			return false
		}
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func inRange(v float64, min, max *float64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}

// matchMembership accepts when any wanted value equals any record value,
// comparing lowercased.
func matchMembership(wanted, have []string) bool {
	if len(wanted) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, v := range have {
		set[strings.ToLower(v)] = true
	}
	for _, w := range wanted {
		if set[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

// anySubstring accepts when any wanted value, lowercased, is a substring of
// text. text must already be lowercased.
func anySubstring(wanted []string, text string) bool {
	for _, w := range wanted {
		if strings.Contains(text, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func lowerJoin(parts ...string) string {
	return strings.ToLower(strings.Join(parts, " "))
}
