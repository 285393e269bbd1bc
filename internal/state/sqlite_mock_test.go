package state

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsparql/pkg/capability"
)

func TestSQLiteStore_DatabaseErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		call      func(s *SQLiteStore) error
		errMsg    string
	}{
		{
			name: "save capabilities",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO capabilities").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				return s.SaveCapabilities(context.Background(), &capability.Model{Endpoint: "https://example.org/sparql"})
			},
			errMsg: "failed to save capabilities",
		},
		{
			name: "get capabilities",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT snapshot FROM capabilities").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.GetCapabilities(context.Background(), "https://example.org/sparql")
				return err
			},
			errMsg: "failed to get capabilities",
		},
		{
			name: "corrupt snapshot",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT snapshot FROM capabilities").
					WillReturnRows(sqlmock.NewRows([]string{"snapshot"}).AddRow("{not json"))
			},
			call: func(s *SQLiteStore) error {
				_, err := s.GetCapabilities(context.Background(), "https://example.org/sparql")
				return err
			},
			errMsg: "failed to decode cached capabilities",
		},
		{
			name: "list capabilities scan",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT endpoint, available").
					WillReturnRows(sqlmock.NewRows([]string{"endpoint", "available", "fetched_at", "updated_at"}).
						AddRow("https://example.org/sparql", "yes", "x", 0))
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListCapabilities(context.Background())
				return err
			},
			errMsg: "failed to scan capabilities",
		},
		{
			name: "record execution",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO history").WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				return s.RecordExecution(context.Background(), &HistoryEntry{Endpoint: "e", Outcome: "success"})
			},
			errMsg: "failed to record execution",
		},
		{
			name: "list history",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM history WHERE endpoint = \\?").
					WithArgs("https://example.org/sparql", DefaultHistoryLimit).
					WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.ListHistory(context.Background(), HistoryFilter{Endpoint: "https://example.org/sparql"})
				return err
			},
			errMsg: "failed to list history",
		},
		{
			name: "prune history",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DELETE FROM history").WithArgs(10).WillReturnError(assert.AnError)
			},
			call: func(s *SQLiteStore) error {
				_, err := s.PruneHistory(context.Background(), 10)
				return err
			},
			errMsg: "failed to prune history",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.setupMock(mock)
			err = tt.call(NewWithDB(db, nil))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
