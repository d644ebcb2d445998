package greenthread

import (
	"fmt"
)

func (r *Runtime) logThread(t *thread, msg string) {
	r.log.Debug().
		Uint64(`thread`, uint64(t.id)).
		Stringer(`state`, t.state).
		Log(msg)
}

func (r *Runtime) logThreadPanic(t *thread) {
	r.log.Err().
		Uint64(`thread`, uint64(t.id)).
		Str(`panic`, fmt.Sprint(t.panic.Value)).
		Log(`thread panicked`)
}

func (r *Runtime) logLock(t *thread, key uint32, msg string) {
	r.log.Debug().
		Uint64(`thread`, uint64(t.id)).
		Int64(`lock`, int64(key)).
		Log(msg)
}

func (r *Runtime) logCond(t *thread, lockKey, condKey uint32, msg string) {
	r.log.Debug().
		Uint64(`thread`, uint64(t.id)).
		Int64(`lock`, int64(lockKey)).
		Int64(`cond`, int64(condKey)).
		Log(msg)
}
