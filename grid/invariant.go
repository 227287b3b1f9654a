package grid

import "go.uber.org/zap"

// invariant reports whether cond holds. A violation panics in builds tagged
// griddebug and is logged otherwise, leaving the caller to clamp.
func invariant(log *zap.Logger, cond bool, msg string, fields ...zap.Field) bool {
	if cond {
		return true
	}
	if debugInvariants {
		panic("grid: invariant violated: " + msg)
	}
	if log != nil {
		log.Error("invariant violated", append([]zap.Field{zap.String("invariant", msg)}, fields...)...)
	}
	return false
}
