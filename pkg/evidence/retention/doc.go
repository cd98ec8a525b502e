// Package retention enforces the evidence retention policy.
//
// A Pruner deletes records older than the configured number of days and
// then, if a record cap is set, the oldest records beyond the cap. Records
// can be archived to a JSON file before deletion.
//
// A Scheduler runs the pruner on a cron schedule (standard five-field
// syntax, parsed by github.com/robfig/cron/v3):
//
//	"0 3 * * *"    daily at 3 AM
//	"0 */6 * * *"  every 6 hours
//	"@hourly"      every hour
//
//	pruner := retention.NewPruner(store, retention.Config{RetentionDays: 30, PruneSchedule: "0 3 * * *"}, logger, collector)
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
package retention
