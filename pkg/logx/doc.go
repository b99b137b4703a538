// Package logx is applog's diagnostic logger.
//
// applog never reports its own failures (a webhook that is down, a Telegram
// chat id that was rejected, a malformed channel in the config file) through
// the sinks it manages. Those go here instead: a small wrapper (logx.Logger)
// on top of zerolog that keeps
//   - Console output readable (short timestamp + short caller)
//   - Fields typed and ordered (String, Int, Err, ...)
//   - A zero value that is a safe no-op
package logx
