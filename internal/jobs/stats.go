package jobs

import (
	"context"
	"database/sql"

	"github.com/odaliasengell/neurolog-app-sub000/internal/db"
)

// StatsJob refreshes the entity-count gauges. Cheap enough to run every
// minute; counts are informational, not part of any permission decision.
func StatsJob(database *sql.DB) Job {
	return func(ctx context.Context) error {
		children, err := db.CountChildren(ctx, database)
		if err != nil {
			return err
		}
		relations, err := db.CountAccessRows(ctx, database)
		if err != nil {
			return err
		}
		logs, err := db.CountLogs(ctx, database)
		if err != nil {
			return err
		}
		activeChildren.Set(float64(children))
		accessRelations.Set(float64(relations))
		dailyLogs.Set(float64(logs))
		return nil
	}
}
