// Package export writes evidence records as JSON or CSV.
//
// Both exporters offer Export for a slice and ExportStream for the channel
// returned by evidence.Storage.QueryStream:
//
//	recordsCh, errCh, err := store.QueryStream(ctx, q)
//	if err != nil {
//	    return err
//	}
//	if err := export.NewCSVExporter(true).ExportStream(ctx, recordsCh, w); err != nil {
//	    return err
//	}
//	return <-errCh
package export
