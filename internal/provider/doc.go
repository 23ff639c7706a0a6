// Package provider is the content-provider style CRUD layer: it routes
// content paths to table operations, validates payloads against the entity
// schema and notifies observers after successful mutations.
//
// # Selection rules
//
// Collection paths honour the caller's filter; item paths always target
// exactly the addressed row and ignore any caller filter:
//
//	p.Update("com.example.symptomchecker/hospitals/1", provider.Record{"name": "West"}, "name = ?", "x")
//	// updates row 1 only
//
// Zero affected rows is a valid result, not an error, and emits no
// notification.
//
// A filter is applied verbatim as "(filter)" by every operation. Filters and
// orders must be one expression: separators, comments, unbalanced
// parentheses and open quotes are rejected with ErrInvalidExpression.
//
// Insert reports the first missing required column, in declaration order,
// before any undeclared column.
//
// # Errors
//
//   - ErrUnroutableResource: the path names no registered entity
//   - ErrUnsupportedOperation: e.g. insert on an item path
//   - *ValidationError (ErrValidation): unknown column or missing required value
//   - ErrInvalidExpression (ErrValidation): filter or order is not one expression
//   - *StorageError (ErrStorage): SQLite failed; never retried
package provider
