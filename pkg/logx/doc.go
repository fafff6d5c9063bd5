// Package logx configures the dispatcher's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Output and level swappable at runtime through Service.Apply
package logx
