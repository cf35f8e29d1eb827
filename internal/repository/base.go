// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"vinoteca/internal/database"
	"vinoteca/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicate is returned by Create when a unique constraint rejects the row.
var ErrDuplicate = errors.New("duplicate record")

const pgUniqueViolation = "23505"

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// sqlite reports constraint failures only through the message
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// paginate applies ORDER BY, LIMIT and OFFSET for req. Sort fields are mapped
// through columns; unknown fields are skipped here because services reject
// them before any query runs. id is appended as a tiebreaker so pages are
// stable when timestamps collide.
func paginate(db *gorm.DB, req models.PageRequest, columns map[string]string) *gorm.DB {
	orderBy := make([]clause.OrderByColumn, 0, len(req.Sort)+1)
	for _, o := range req.Sort {
		col, ok := columns[o.Field]
		if !ok {
			continue
		}
		orderBy = append(orderBy, clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: o.Desc})
	}
	orderBy = append(orderBy, clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	db = db.Clauses(clause.OrderBy{Columns: orderBy}).Limit(req.Size)
	if off := req.Offset(); off > 0 {
		db = db.Offset(off)
	}
	return db
}
