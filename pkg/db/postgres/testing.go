package postgres

import (
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// MockDB provides a wrapper around sql.DB and sqlmock.Sqlmock to simplify testing.
type MockDB struct {
	Mock sqlmock.Sqlmock
	DB   *sql.DB
}

// NewMockDB initializes a new MockDB instance and returns a cleanup function.
// Close is tracked by sqlmock, so callers can assert it with ExpectClose.
func NewMockDB(t *testing.T) (*MockDB, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return &MockDB{Mock: mock, DB: db}, func() { db.Close() }
}

// ExpectVersionQuery sets up an expectation for query returning a single version row.
func (m *MockDB) ExpectVersionQuery(query, version string) {
	m.Mock.ExpectQuery(regexp.QuoteMeta(query)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(version))
}

// ExpectVersionQueryError sets up an expectation for query failing with err.
func (m *MockDB) ExpectVersionQueryError(query string, err error) {
	m.Mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnError(err)
}
