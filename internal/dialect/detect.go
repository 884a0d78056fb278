// Package dialect identifies the SQL dialect of a schema dump and defines
// the closed dialect enumeration shared across the pipeline.
package dialect

import (
	"regexp"
	"strings"
)

// Dialect is one of the three supported SQL dialects.
type Dialect int

const (
	Unknown Dialect = iota
	MySQL
	PostgreSQL
	SQLite
)

// String renders the dialect's canonical lowercase name, matching the
// external interface's closed set {mysql, postgresql, sqlite}.
func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case PostgreSQL:
		return "postgresql"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// Parse maps a dialect name to its Dialect value. Accepted spellings are
// case-insensitive; "postgres" is accepted as an alias for "postgresql".
func Parse(name string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return MySQL, true
	case "postgresql", "postgres":
		return PostgreSQL, true
	case "sqlite", "sqlite3":
		return SQLite, true
	default:
		return Unknown, false
	}
}

// sampleLimit bounds how much of the input is scanned for detection
// signals, matching the spec's "up to N KB" language.
const sampleLimit = 64 * 1024

type signal struct {
	pattern *regexp.Regexp
	weight  int
}

var mysqlSignals = []signal{
	{regexp.MustCompile(`(?i)mysqldump`), 5},
	{regexp.MustCompile(`(?i)auto_increment`), 3},
	{regexp.MustCompile(`(?i)engine\s*=\s*(innodb|myisam)`), 4},
	{regexp.MustCompile("`[A-Za-z_][A-Za-z0-9_]*`"), 2},
	{regexp.MustCompile(`(?i)\bcollate\b`), 1},
	{regexp.MustCompile(`(?i)\bcharset\b`), 1},
}

var postgresSignals = []signal{
	{regexp.MustCompile(`(?i)pg_dump`), 5},
	{regexp.MustCompile(`(?i)\b(big|small)?serial\b`), 3},
	{regexp.MustCompile(`(?i)nextval\(`), 3},
	{regexp.MustCompile(`(?i)create\s+sequence`), 3},
	{regexp.MustCompile(`\$\$`), 2},
	{regexp.MustCompile(`(?i)::\w+`), 2},
}

var sqliteSignals = []signal{
	{regexp.MustCompile(`(?i)sqlite_master`), 5},
	{regexp.MustCompile(`(?i)\bautoincrement\b`), 3},
	{regexp.MustCompile(`(?i)\bpragma\b`), 3},
	{regexp.MustCompile(`(?i)without\s+rowid`), 4},
}

// Scores holds the per-dialect weighted signal totals from a Detect call.
type Scores struct {
	MySQL      int
	PostgreSQL int
	SQLite     int
}

// Result is the outcome of dialect detection.
type Result struct {
	Dialect    Dialect
	Scores     Scores
	Confidence bool // false when all scores were zero and MySQL was chosen by policy
}

// Detect scores a sample of the input against each dialect's signal set and
// returns the highest-scoring dialect. When every score is zero, MySQL is
// returned by policy with Confidence == false, and the caller should surface
// a low-confidence warning.
func Detect(input string) Result {
	sample := input
	if len(sample) > sampleLimit {
		sample = sample[:sampleLimit]
	}

	scores := Scores{
		MySQL:      sumWeights(sample, mysqlSignals),
		PostgreSQL: sumWeights(sample, postgresSignals),
		SQLite:     sumWeights(sample, sqliteSignals),
	}

	best := MySQL
	bestScore := scores.MySQL
	if scores.PostgreSQL > bestScore {
		best = PostgreSQL
		bestScore = scores.PostgreSQL
	}
	if scores.SQLite > bestScore {
		best = SQLite
		bestScore = scores.SQLite
	}

	if scores.MySQL == 0 && scores.PostgreSQL == 0 && scores.SQLite == 0 {
		return Result{Dialect: MySQL, Scores: scores, Confidence: false}
	}
	return Result{Dialect: best, Scores: scores, Confidence: true}
}

func sumWeights(sample string, signals []signal) int {
	total := 0
	for _, sig := range signals {
		if sig.pattern.MatchString(sample) {
			total += sig.weight
		}
	}
	return total
}
