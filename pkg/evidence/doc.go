// Package evidence records an audit trail of relayed requests.
//
// Each relay request (preflights excepted) produces one Record: request
// metadata, the outcome and status returned to the caller, upstream status
// and latency, and SHA-256 hashes of the prompt and the upstream body. The
// prompt and response text are never stored, and neither is the Gemini
// credential.
//
// # Architecture
//
//  1. recorder: accepts records from the handler and writes them to
//     storage on a background goroutine, so a slow disk never delays a
//     response.
//  2. storage: persists records (SQLite, or memory for tests and
//     serverless experiments).
//  3. retention: prunes old records on a cron schedule, optionally
//     archiving them first.
//  4. export: writes query results as JSON or CSV.
//
// # Basic Usage
//
//	store, err := storage.New(cfg.Evidence, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec := recorder.New(store, recorder.Config{AsyncBuffer: 1000, WriteTimeout: 5 * time.Second})
//	defer rec.Close()
//
//	_ = rec.Record(ctx, &evidence.Record{RequestID: id, Outcome: "success"})
//
// # Querying
//
//	since := time.Now().Add(-24 * time.Hour)
//	records, err := store.Query(ctx, &evidence.Query{
//	    StartTime: &since,
//	    Outcome:   "upstream_error",
//	    Limit:     100,
//	})
package evidence
