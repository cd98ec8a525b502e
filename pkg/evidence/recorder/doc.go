// Package recorder writes evidence records asynchronously.
//
// The relay handler calls Record after it has built the response; the
// record is queued on a buffered channel and written by a single background
// goroutine. When the buffer stays full for longer than the write timeout
// the record is dropped and counted, so storage trouble never turns into
// request latency.
//
//	rec := recorder.New(store, recorder.Config{AsyncBuffer: 1000})
//	defer rec.Close() // flushes pending records
//
// HashContent and HashString produce the SHA-256 digests stored in place
// of prompt and response text.
package recorder
