// Package core ties the pipeline together behind a single Service.
//
// This package holds no transport code. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Load Cycle
//
// [Service.Reload] runs one full batch load:
//
//  1. The provider supplies the main, secondary and vaccination tables
//  2. The merge engine builds the unified table
//  3. The result is published as an immutable [Snapshot]
//  4. When an exporter is configured, the snapshot is copied to Postgres
//
// A failed load leaves the previous snapshot in place. Readers never see a
// partially built table. Every attempt, failed or not, is kept in a bounded
// in-memory history ([Service.History]).
//
// # Dispatch
//
// [Service.Dispatch] runs one country module against the current snapshot.
// Failures are scoped to the requested label. A [DispatchLimiter] caps how
// many modules run at once.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - SCH001-SCH003: Merge schema errors (missing keys, duplicates, collisions)
//   - CFG001: Unregistered country module
//   - CON001-CON002: Country module contract violations
//   - DATA001-DATA002: Snapshot availability
//   - FILE001-FILE004: Raw file errors
//   - REQ001-REQ002: Cancelled or timed out requests
//   - RATE001-RATE002: Rate limited or busy
package core
