// Package queryengine maps natural-language questions to disambiguated
// temporal expressions before any LLM sees them.
//
// The mapping is a fixed phrase table, not inference: "minggu lalu" /
// "last week" always means the previous full calendar week, "7 hari
// terakhir" / "past 7 days" always means a rolling window anchored to
// now. Phrases outside the table produce no expression at all; the
// detector never guesses intent from free text. This is the structural
// fix for the rolling-vs-calendar misreadings that kept recurring when
// the model was left to invent its own date arithmetic.
package queryengine

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/plugin/temporal"
)

var (
	// ErrQuestionTooLong is returned when the question exceeds the
	// configured length limit.
	ErrQuestionTooLong = errors.New("queryengine: question too long")

	// ErrWindowTooLarge is returned when a detected rolling window
	// exceeds the configured span limit.
	ErrWindowTooLarge = errors.New("queryengine: rolling window too large")

	// ErrInvalidWindow is returned when a detected rolling window count
	// is zero, negative or unparsable.
	ErrInvalidWindow = errors.New("queryengine: invalid rolling window")
)

// Detection pairs a matched phrase with its disambiguated expression.
type Detection struct {
	Phrase     string
	Expression temporal.Expression
}

// Result is the outcome of scanning one question.
type Result struct {
	// Detections are the temporal phrases found, in match order.
	Detections []Detection

	// ContentQuery is the question with temporal phrases removed,
	// used for retrieval so "pesanan minggu lalu" and "pesanan bulan
	// ini" embed to the same neighborhood.
	ContentQuery string
}

type keywordRule struct {
	phrase     string
	expression temporal.Expression
}

// Rolling windows: "past 7 days", "last 24 hours", "7 hari terakhir",
// "24 jam terakhir".
var (
	rollingEnPattern = regexp.MustCompile(`(?i)\b(?:past|last)\s+(\d+)\s+(days?|hours?)\b`)
	rollingIDPattern = regexp.MustCompile(`(?i)\b(\d+)\s+(hari|jam)\s+terakhir\b`)
)

// keywordRules is ordered: longer, more specific phrases come before
// their substrings so "minggu lalu" wins over any bare "minggu" rule a
// future edit might add.
var keywordRules = []keywordRule{
	// Calendar weeks.
	{"minggu lalu", temporal.CalendarPeriod(temporal.GranularityWeek, -1)},
	{"last week", temporal.CalendarPeriod(temporal.GranularityWeek, -1)},
	{"minggu ini", temporal.CalendarPeriod(temporal.GranularityWeek, 0)},
	{"this week", temporal.CalendarPeriod(temporal.GranularityWeek, 0)},

	// Calendar months.
	{"bulan lalu", temporal.CalendarPeriod(temporal.GranularityMonth, -1)},
	{"last month", temporal.CalendarPeriod(temporal.GranularityMonth, -1)},
	{"bulan ini", temporal.CalendarPeriod(temporal.GranularityMonth, 0)},
	{"this month", temporal.CalendarPeriod(temporal.GranularityMonth, 0)},

	// Calendar quarters.
	{"kuartal lalu", temporal.CalendarPeriod(temporal.GranularityQuarter, -1)},
	{"last quarter", temporal.CalendarPeriod(temporal.GranularityQuarter, -1)},
	{"kuartal ini", temporal.CalendarPeriod(temporal.GranularityQuarter, 0)},
	{"this quarter", temporal.CalendarPeriod(temporal.GranularityQuarter, 0)},

	// Calendar years.
	{"tahun lalu", temporal.CalendarPeriod(temporal.GranularityYear, -1)},
	{"last year", temporal.CalendarPeriod(temporal.GranularityYear, -1)},
	{"tahun ini", temporal.CalendarPeriod(temporal.GranularityYear, 0)},
	{"this year", temporal.CalendarPeriod(temporal.GranularityYear, 0)},

	// Recurring filters.
	{"akhir pekan", temporal.DayOfWeekFilter(time.Saturday, time.Sunday)},
	{"weekends", temporal.DayOfWeekFilter(time.Saturday, time.Sunday)},
	{"weekend", temporal.DayOfWeekFilter(time.Saturday, time.Sunday)},
	{"hari kerja", temporal.DayOfWeekFilter(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)},
	{"weekdays", temporal.DayOfWeekFilter(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)},
	{"jam kerja", temporal.HourOfDayFilter(9, 17)},
	{"business hours", temporal.HourOfDayFilter(9, 17)},
	{"working hours", temporal.HourOfDayFilter(9, 17)},
}

// stopWords are filler tokens stripped from the residual content query.
var stopWords = []string{
	"berapa banyak", "berapa", "tampilkan", "tunjukkan",
	"how many", "how much", "show me", "show",
}

// Detector scans questions for temporal phrases.
type Detector struct {
	config *Config
}

// NewDetector creates a detector with the default configuration.
func NewDetector() *Detector {
	return NewDetectorWithConfig(DefaultConfig())
}

// NewDetectorWithConfig creates a detector with the given configuration.
// A nil config falls back to the defaults.
func NewDetectorWithConfig(config *Config) *Detector {
	if config == nil {
		config = DefaultConfig()
	}
	return &Detector{config: config}
}

// Detect scans the question and returns all matched temporal phrases in
// match order, plus the residual content query. Questions with no
// temporal phrase return an empty detection list; that is a normal
// outcome, not an error.
func (d *Detector) Detect(question string) (Result, error) {
	question = strings.TrimSpace(question)
	if utf8.RuneCountInString(question) > d.config.MaxQuestionLength {
		return Result{}, errors.Wrapf(ErrQuestionTooLong, "%d runes, limit %d",
			utf8.RuneCountInString(question), d.config.MaxQuestionLength)
	}

	lower := strings.ToLower(question)
	var detections []Detection
	residual := lower

	for _, pattern := range []*regexp.Regexp{rollingEnPattern, rollingIDPattern} {
		for _, match := range pattern.FindAllStringSubmatch(lower, -1) {
			expr, err := d.rollingExpression(match[1], match[2])
			if err != nil {
				return Result{}, err
			}
			detections = append(detections, Detection{Phrase: match[0], Expression: expr})
			residual = strings.ReplaceAll(residual, match[0], " ")
		}
	}

	for _, rule := range keywordRules {
		if strings.Contains(residual, rule.phrase) {
			detections = append(detections, Detection{Phrase: rule.phrase, Expression: rule.expression})
			residual = strings.ReplaceAll(residual, rule.phrase, " ")
		}
	}

	return Result{
		Detections:   detections,
		ContentQuery: cleanContentQuery(residual),
	}, nil
}

func (d *Detector) rollingExpression(countStr, unitStr string) (temporal.Expression, error) {
	count, err := strconv.Atoi(countStr)
	if err != nil || count <= 0 {
		return temporal.Expression{}, errors.Wrapf(ErrInvalidWindow, "window count %q", countStr)
	}

	unit := temporal.UnitDays
	spanDays := count
	switch strings.ToLower(unitStr) {
	case "hour", "hours", "jam":
		unit = temporal.UnitHours
		spanDays = (count + 23) / 24
	}

	if spanDays > d.config.MaxWindowDays {
		return temporal.Expression{}, errors.Wrapf(ErrWindowTooLarge, "%d days exceeds limit %d", spanDays, d.config.MaxWindowDays)
	}
	return temporal.RollingWindow(unit, count), nil
}

func cleanContentQuery(s string) string {
	for _, word := range stopWords {
		s = strings.ReplaceAll(s, word, " ")
	}
	return strings.Join(strings.Fields(s), " ")
}
