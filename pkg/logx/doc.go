// Package logx configures chefplan's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Debug/trace volume bounded (optional per-second sampling)
package logx
