// Package resource enforces limits on mapped memory and flush IO.
//
// A Controller is shared by every region a database opens:
//
//   - Memory: the total number of mapped bytes (non-blocking, fail-fast)
//   - IO: a token bucket that throttles how fast dirty pages are flushed
//
// # Memory Budget
//
// A region charges the controller before it grows its mapping and refunds
// the charge when the growth fails or the region closes:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB of mappings
//	})
//
//	if err := rc.AcquireMemory(delta); err != nil {
//	    // ErrMemoryLimitExceeded: the growth is refused
//	}
//
// # Flush Throttling
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 64 << 20, // 64MB/s
//	})
//
//	for off := 0; off < size; off += rc.IOBurst() {
//	    if err := rc.AcquireIO(ctx, chunk); err != nil {
//	        return err
//	    }
//	    // msync the chunk
//	}
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
