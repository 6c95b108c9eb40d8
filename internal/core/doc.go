// Package core provides the row validation and batch logic for spreadsheet
// imports.
//
// This package is the heart of the importer, containing the domain logic
// independent of any file format, UI or transport layer. It is used by the
// import session, the web handlers, the CLI, and tests without modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Rows: a [RawRow] is one data row keyed by its original header. Row
//     numbers shown to users come from [RowNumber] and match the spreadsheet.
//   - Validation: [RowValidator] coerces each mapped cell and checks it
//     against its schema.FieldSpec, producing a [Record] or issues.
//   - Batches: [BatchProcessor] validates a whole sheet and partitions it
//     into an [ImportResult]. Every row lands in exactly one partition.
//   - Records: [DomainRecord] turns a valid record into a typed
//     [ReturnedPart] or [Order].
//
// # Mapping
//
// A nil mapping means strict mode: headers must equal a field name or label.
// Otherwise each [ColumnMapping] names the field its column feeds, and
// unmapped columns are ignored.
//
// # Issues
//
// Data problems never become Go errors. They are [ValidationIssue] values
// with a severity: errors reject the row, warnings keep it.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB005: Database errors (duplicates, connections, deadlocks)
//   - VAL001-VAL004: Mapping errors (unknown fields or columns, nothing valid,
//     one field on two columns)
//   - FILE001-FILE006: File errors (size, format, empty sheets)
//   - SES001-SES003: Session errors (expired, wrong step, failed)
//   - IMP001-IMP006: Import errors (record type, busy, cancelled, rollback)
//   - REQ001: Malformed requests
//   - RATE001: Rate limiting
package core
