package log

import (
	tmlog "github.com/tendermint/tendermint/libs/log"
)

// tmLogger exposes a Logger through Tendermint's logging interface so the
// ABCI server logs through the same sink as the application.
type tmLogger struct {
	Logger
}

// NewTMLogger adapts logger to tmlog.Logger.
func NewTMLogger(logger Logger) tmlog.Logger {
	return tmLogger{Logger: logger}
}

func (l tmLogger) With(keyVals ...interface{}) tmlog.Logger {
	return tmLogger{Logger: l.Logger.With(keyVals...)}
}
