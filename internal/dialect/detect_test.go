package dialect

import "testing"

func TestDetectMySQL(t *testing.T) {
	src := "-- mysqldump\nCREATE TABLE `users` (id INT AUTO_INCREMENT PRIMARY KEY) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;"
	got := Detect(src)
	if got.Dialect != MySQL {
		t.Errorf("Dialect = %v, want MySQL (scores=%+v)", got.Dialect, got.Scores)
	}
	if !got.Confidence {
		t.Error("Confidence should be true when signals matched")
	}
}

func TestDetectPostgreSQL(t *testing.T) {
	src := "-- pg_dump\nCREATE TABLE users (id BIGSERIAL PRIMARY KEY, seq INT DEFAULT nextval('users_seq'));"
	got := Detect(src)
	if got.Dialect != PostgreSQL {
		t.Errorf("Dialect = %v, want PostgreSQL (scores=%+v)", got.Dialect, got.Scores)
	}
}

func TestDetectSQLite(t *testing.T) {
	src := "CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT) WITHOUT ROWID;\nPRAGMA foreign_keys=ON;"
	got := Detect(src)
	if got.Dialect != SQLite {
		t.Errorf("Dialect = %v, want SQLite (scores=%+v)", got.Dialect, got.Scores)
	}
}

func TestDetectZeroScoreDefaultsToMySQL(t *testing.T) {
	got := Detect("SELECT 1;")
	if got.Dialect != MySQL {
		t.Errorf("Dialect = %v, want MySQL by policy", got.Dialect)
	}
	if got.Confidence {
		t.Error("Confidence should be false for zero scores")
	}
}

func TestParse(t *testing.T) {
	tests := map[string]Dialect{
		"mysql":      MySQL,
		"PostgreSQL": PostgreSQL,
		"postgres":   PostgreSQL,
		"sqlite":     SQLite,
		"sqlite3":    SQLite,
	}
	for in, want := range tests {
		got, ok := Parse(in)
		if !ok || got != want {
			t.Errorf("Parse(%q) = (%v, %v), want (%v, true)", in, got, ok, want)
		}
	}
	if _, ok := Parse("oracle"); ok {
		t.Error("Parse(oracle) should fail")
	}
}

func TestDialectString(t *testing.T) {
	if MySQL.String() != "mysql" || PostgreSQL.String() != "postgresql" || SQLite.String() != "sqlite" {
		t.Error("unexpected dialect names")
	}
}
