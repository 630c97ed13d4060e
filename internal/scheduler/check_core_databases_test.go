package scheduler

import (
	"testing"

	testingpkg "github.com/aristath/appa/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCheckCoreDatabasesJob_Run(t *testing.T) {
	portfolioDB, cleanup := testingpkg.NewTestDB(t, "portfolio")
	defer cleanup()
	cacheDB, cleanupCache := testingpkg.NewTestDB(t, "cache")
	defer cleanupCache()

	job := NewCheckCoreDatabasesJob(zerolog.Nop(), portfolioDB, nil, cacheDB)
	assert.Equal(t, "check_core_databases", job.Name())
	assert.NoError(t, job.Run())
}

func TestCheckCoreDatabasesJob_ClosedDatabase(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	cleanup()

	job := NewCheckCoreDatabasesJob(zerolog.Nop(), db)
	err := job.Run()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ledger")
}
