// Package oplog is the operational logger of the order debugger: the place where
// the subsystem reports problems about itself (unwritable debug log, missing host,
// rejected events). It is a thin wrapper over rs/zerolog with an optional rolling
// file via lumberjack and a console writer.
//
// Errors passed to Err/AnErr are enriched with their full cause chain
// (outermost -> root) and, for Station-Manager DetailedError values, the chain
// of operations.
//
//	ops := &oplog.Service{Config: &cfg.Logging}
//	if err := ops.Initialize(); err != nil { ... }
//	defer ops.Close()
//
//	ops.WarnWith().Err(err).Str("path", path).Msg("debug log unwritable")
package oplog
