package repository

import (
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"lakeagent/internal/db"
)

type repos struct {
	snapshots     *SnapshotRepo
	jobs          *JobRepo
	planRuns      *PlanRunRepo
	conversations *ConversationRepo
}

func setupRepos(t *testing.T) repos {
	t.Helper()
	writeDB, readDB := db.OpenTestSQLite(t)
	return repos{
		snapshots:     NewSnapshotRepo(writeDB, readDB),
		jobs:          NewJobRepo(writeDB, readDB),
		planRuns:      NewPlanRunRepo(writeDB, readDB),
		conversations: NewConversationRepo(writeDB, readDB),
	}
}
