// Package logx configures metron's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Sinks swappable at runtime via Service.Apply (config hot reload)
//
// The zero Logger value is a safe no-op, so library types can embed one
// without forcing callers to configure logging.
package logx
