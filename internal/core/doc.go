// Package core provides the quality-check pipeline for cruise datasets.
//
// The package contains all domain logic independent of any transport layer.
// It can be used by web handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// A check run moves one [Dataset] through these stages:
//
//  1. [SelectStrategy] picks how each row's timestamp is rebuilt from the
//     temporal columns present.
//  2. [BuildSpec] describes the measured and selected temporal columns to the
//     validation engine. Unclassified columns and unknown units stop the run.
//  3. [RunEngine] invokes the [Engine] and translates its failures.
//  4. [ClassifyMessages] sorts each engine diagnostic into exactly one
//     [Category] by matching fragments of its text.
//  5. [AssignFlags] turns errors into hard (WOCE-4) and warnings into soft
//     (WOCE-3) flags, applies user WOCE columns, and derives the [CheckStatus].
//  6. [MessageStore] persists the messages, one record file per dataset.
//  7. [Standardize] rewrites measured values into canonical units and appends
//     missing calendar columns.
//
// [Checker] wires the stages together and is the entry point for callers.
//
// # Column Types
//
// Every column is declared as a [ColumnType] from the [Catalog]. The type's
// [RoleClass] decides how each stage treats it; stages switch on the role,
// never on the type name.
//
// # Error Handling
//
// Classification errors ([MissingTemporalSpecError], [UnclassifiedColumnError],
// [UnitMappingError]) are the uploader's to fix. Contract errors
// ([UnrecognizedMessageError], [AmbiguousMessageError], [IndexRangeError],
// [StructuralError], [RecordCorruptError]) abort the run. [MapError] converts
// any of them to a user message with a support code.
//
// # Concurrency
//
// The catalog is immutable and shared. A [Checker] keeps no per-dataset state,
// but two runs on the same dataset must not overlap; callers serialize them
// with [CheckLimiter.LockDataset].
package core
