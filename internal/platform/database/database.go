package database

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"concierge/internal/model"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// New opens the section store for driver ("mysql" or "postgres") and pings it.
func New(ctx context.Context, driver, dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logLevel)})
	if err != nil {
		return nil, fmt.Errorf("open %s failed: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get %s sql db failed: %w", driver, err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := Ping(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db failed: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database failed: %w", err)
	}
	return nil
}

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	corpusPattern     = regexp.MustCompile(`^[a-z0-9_]*$`)
)

// Migrate creates the tables the relay writes to. On postgres it also enables
// the vector extension and (re)creates one match function per corpus, keyed
// by corpus name in matchFuncs.
func Migrate(db *gorm.DB, matchFuncs map[string]string) error {
	for corpus, fn := range matchFuncs {
		if !identifierPattern.MatchString(fn) {
			return fmt.Errorf("invalid match function name %q", fn)
		}
		if !corpusPattern.MatchString(corpus) {
			return fmt.Errorf("invalid corpus name %q", corpus)
		}
	}

	postgresDB := db.Dialector.Name() == DriverPostgres
	if postgresDB {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("enable vector extension failed: %w", err)
		}
	}
	if err := db.AutoMigrate(
		&model.Section{},
		&model.AnswerRecord{},
		&model.SectionLink{},
		&model.Description{},
		&model.DescriptionSection{},
		&model.ExternalSectionLink{},
		&model.PageHitStat{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if !postgresDB {
		return nil
	}

	corpora := make([]string, 0, len(matchFuncs))
	for corpus := range matchFuncs {
		corpora = append(corpora, corpus)
	}
	sort.Strings(corpora)
	for _, corpus := range corpora {
		fn := matchFuncs[corpus]
		if err := db.Exec(MatchFunctionSQL(fn, corpus)).Error; err != nil {
			return fmt.Errorf("create match function %s failed: %w", fn, err)
		}
	}
	return nil
}

// MatchFunctionSQL returns the DDL of a postgres function that ranks the
// sections of one corpus by cosine similarity to a query embedding, keeping
// rows whose similarity is greater than the threshold. Callers validate fn
// and corpus.
func MatchFunctionSQL(fn, corpus string) string {
	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s(query_embedding vector, match_threshold float8, match_count int)
RETURNS TABLE (id bigint, content text, tokens bigint, page_url text, page_title text, page_summary text, corpus text, similarity float8)
LANGUAGE sql STABLE
AS $$
  SELECT s.id::bigint, s.content::text, s.tokens::bigint, s.page_url::text, s.page_title::text,
         s.page_summary::text, s.corpus::text, (1 - (s.embedding <=> query_embedding))::float8
  FROM sections s
  WHERE s.corpus = '%s'
    AND 1 - (s.embedding <=> query_embedding) > match_threshold
  ORDER BY s.embedding <=> query_embedding
  LIMIT match_count;
$$`, fn, corpus)
}
