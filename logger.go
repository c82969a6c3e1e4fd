package hashtable

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the logger that contract violations are reported to.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	nop := zap.NewNop()
	if logger.CompareAndSwap(nil, nop) {
		return nop
	}
	return logger.Load()
}

// SetLogger replaces the package logger. A nil logger restores the no-op
// default. It is safe to call while tables are in use.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}
