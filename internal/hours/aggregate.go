// Package hours turns a student's activity records into capped, per-category totals
// and a completion status. Everything here is pure and safe for concurrent use.
package hours

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidConfig is returned when the list configuration cannot produce a meaningful result.
var ErrInvalidConfig = errors.New("invalid activity list configuration")

// Status is the derived completion state of a student.
type Status string

// Completion states.
const (
	StatusInProgress Status = "in progress"
	StatusComplete   Status = "complete"
)

// Label returns the display label used in exports.
func (s Status) Label() string {
	switch s {
	case StatusComplete:
		return "concluído"
	case StatusInProgress:
		return "em andamento"
	default:
		return string(s)
	}
}

// Record is the subset of an activity the aggregator needs.
type Record struct {
	Category Category
	Hours    float64
}

// Config carries the rules a student is judged against.
type Config struct {
	TotalHoursRequired  float64
	MaxHoursPerCategory float64
}

// Bounds for list targets and caps. Hours are tracked in hundredths, so anything below
// MinHours would round to zero, and MaxHours keeps every sum far from int64 overflow.
const (
	MinHours = 0.01
	MaxHours = 100000.0
)

// Validate rejects targets or caps outside [MinHours, MaxHours].
func (c Config) Validate() error {
	if !inRange(c.MaxHoursPerCategory) {
		return fmt.Errorf("%w: max hours per category must be between %v and %v, got %v", ErrInvalidConfig, MinHours, MaxHours, c.MaxHoursPerCategory)
	}
	if !inRange(c.TotalHoursRequired) {
		return fmt.Errorf("%w: total hours required must be between %v and %v, got %v", ErrInvalidConfig, MinHours, MaxHours, c.TotalHoursRequired)
	}
	return nil
}

func inRange(h float64) bool {
	return h >= MinHours && h <= MaxHours
}

// CategoryTotal holds the raw and creditable hours for one category.
type CategoryTotal struct {
	Category    Category `json:"category"`
	Label       string   `json:"label"`
	RawHours    float64  `json:"raw_hours"`
	CappedHours float64  `json:"capped_hours"`
	IsCapped    bool     `json:"is_capped"`
}

// Result is recomputed on demand and never persisted.
type Result struct {
	PerCategory      map[Category]CategoryTotal `json:"per_category"`
	ValidTotalHours  float64                    `json:"valid_total_hours"`
	CompletionStatus Status                     `json:"completion_status"`
}

// Aggregate groups records by category, caps each category independently and derives the
// completion status. Input order never affects the result.
func Aggregate(records []Record, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	capUnits := toUnits(cfg.MaxHoursPerCategory)
	raw := make(map[Category]int64)
	for _, record := range records {
		raw[record.Category] += toUnits(record.Hours)
	}

	perCategory := make(map[Category]CategoryTotal, len(raw))
	var total int64
	for category, units := range raw {
		capped := units
		if capped > capUnits {
			capped = capUnits
		}
		total += capped
		perCategory[category] = CategoryTotal{
			Category:    category,
			Label:       category.Label(),
			RawHours:    fromUnits(units),
			CappedHours: fromUnits(capped),
			IsCapped:    units > capUnits,
		}
	}

	valid := fromUnits(total)
	return Result{
		PerCategory:      perCategory,
		ValidTotalHours:  valid,
		CompletionStatus: StatusFor(valid, cfg.TotalHoursRequired),
	}, nil
}

// StatusFor is the only place completion is derived.
func StatusFor(validTotal, required float64) Status {
	if toUnits(validTotal) >= toUnits(required) {
		return StatusComplete
	}
	return StatusInProgress
}

// Breakdown returns the present categories ordered by the category enum.
func (r Result) Breakdown() []CategoryTotal {
	out := make([]CategoryTotal, 0, len(r.PerCategory))
	for _, entry := range r.PerCategory {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := out[i].Category.order(), out[j].Category.order()
		if oi != oj {
			return oi < oj
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// WithAllCategories merges zero-hour entries for every enumerated category into the breakdown.
func (r Result) WithAllCategories() []CategoryTotal {
	out := make([]CategoryTotal, 0, len(categories))
	for _, category := range categories {
		if entry, ok := r.PerCategory[category]; ok {
			out = append(out, entry)
			continue
		}
		out = append(out, CategoryTotal{Category: category, Label: category.Label()})
	}
	for _, entry := range r.Breakdown() {
		if !entry.Category.Valid() {
			out = append(out, entry)
		}
	}
	return out
}

// Progress returns the completion percentage, capped at 100.
func (r Result) Progress(cfg Config) float64 {
	if !(cfg.TotalHoursRequired > 0) {
		return 0
	}
	percent := r.ValidTotalHours / cfg.TotalHoursRequired * 100
	if percent > 100 {
		percent = 100
	}
	return math.Round(percent*100) / 100
}

// Hours are accumulated in hundredths so summation is exact and order independent.
const unitsPerHour = 100

// maxRecordUnits bounds a single value so conversion and summation stay defined.
const maxRecordUnits = int64(MaxHours * unitsPerHour * 10)

// toUnits maps non-finite values to zero and saturates finite ones at ±maxRecordUnits,
// which already exceeds any valid cap.
func toUnits(h float64) int64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	scaled := math.Round(h * unitsPerHour)
	if scaled > float64(maxRecordUnits) {
		return maxRecordUnits
	}
	if scaled < -float64(maxRecordUnits) {
		return -maxRecordUnits
	}
	return int64(scaled)
}

func fromUnits(units int64) float64 {
	return float64(units) / unitsPerHour
}
