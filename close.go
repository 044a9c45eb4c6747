package chainmap

import "context"

// Close flushes and unmaps every table and trims the files to their
// logical sizes. It waits for running operations to finish. Subsequent
// calls return the result of the first.
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	db.closeOnce.Do(func() {
		var firstErr error
		if err := db.stealth.Region().Flush(context.Background()); err != nil {
			firstErr = err
		}
		if err := db.stealth.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		db.opts.logger.LogClose(context.Background(), db.dir, firstErr)
		db.closeErr = translateError(firstErr)
	})
	return db.closeErr
}
