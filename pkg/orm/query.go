// Package orm is a thin query builder over gorm used by the repositories.
// It owns the two query shapes the catalog repeats: case-insensitive
// substring search across columns and exact-count pagination.
package orm

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/pkg/database"
)

type Query struct {
	db *gorm.DB
}

// Pagination is the metadata returned next to one page of rows.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// New wraps db, bound to ctx.
func New(ctx context.Context, db *gorm.DB) *Query {
	return &Query{db: db.WithContext(ctx)}
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Where(query interface{}, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

func (q *Query) Order(value string) *Query {
	return &Query{db: q.db.Order(value)}
}

func (q *Query) Limit(n int) *Query {
	return &Query{db: q.db.Limit(n)}
}

func (q *Query) Group(name string) *Query {
	return &Query{db: q.db.Group(name)}
}

func (q *Query) Select(query interface{}, args ...interface{}) *Query {
	return &Query{db: q.db.Select(query, args...)}
}

// Contains keeps rows where any of columns contains term, ignoring case.
// Wildcards in term match literally. Columns are trusted identifiers.
// Both sides are folded by the database; SQLite uses the Unicode-aware
// function registered by database.Open.
func (q *Query) Contains(term string, columns ...string) *Query {
	if term == "" || len(columns) == 0 {
		return q
	}
	pattern := "%" + EscapeLike(term) + "%"

	clauses := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		switch {
		case IsPostgres(q.db):
			clauses[i] = col + " ILIKE ? ESCAPE '!'"
		case IsSQLite(q.db):
			clauses[i] = database.UnicodeLower + "(" + col + ") LIKE " + database.UnicodeLower + "(?) ESCAPE '!'"
		default:
			clauses[i] = "LOWER(" + col + ") LIKE LOWER(?) ESCAPE '!'"
		}
		args[i] = pattern
	}
	return &Query{db: q.db.Where("("+strings.Join(clauses, " OR ")+")", args...)}
}

func (q *Query) Get(dest interface{}) error {
	return q.db.Find(dest).Error
}

// First returns gorm.ErrRecordNotFound when nothing matches.
func (q *Query) First(dest interface{}) error {
	return q.db.First(dest).Error
}

func (q *Query) Count() (int64, error) {
	var n int64
	err := q.db.Count(&n).Error
	return n, err
}

func (q *Query) Pluck(column string, dest interface{}) error {
	return q.db.Pluck(column, dest).Error
}

func (q *Query) Create(v interface{}) error {
	return q.db.Create(v).Error
}

// Updates writes the given column map and returns the number of rows hit.
func (q *Query) Updates(values map[string]interface{}) (int64, error) {
	res := q.db.Updates(values)
	return res.RowsAffected, res.Error
}

// Delete removes the rows matched by the query and returns how many went.
func (q *Query) Delete(model interface{}) (int64, error) {
	res := q.db.Delete(model)
	return res.RowsAffected, res.Error
}

// GetWithPagination loads the zero-based page of size rows into dest and
// counts every row the query matches. A page past the end yields no rows
// with the real total.
func (q *Query) GetWithPagination(dest interface{}, page, size int) (Pagination, error) {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 1
	}

	var total int64
	if err := q.db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, err
	}
	if err := q.db.Offset(page * size).Limit(size).Find(dest).Error; err != nil {
		return Pagination{}, err
	}

	return Pagination{
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// IsPostgres reports whether db talks to PostgreSQL.
func IsPostgres(db *gorm.DB) bool {
	return strings.EqualFold(db.Dialector.Name(), "postgres")
}

// IsSQLite reports whether db talks to SQLite.
func IsSQLite(db *gorm.DB) bool {
	return strings.EqualFold(db.Dialector.Name(), "sqlite")
}

// EscapeLike escapes LIKE metacharacters with '!' so user input matches
// literally. '[' is included for SQL Server.
func EscapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_", "[", "![")
	return r.Replace(s)
}
