// Package errors maps application failures onto RFC 7807 problem responses.
//
// Handlers return plain Go errors; ErrorHandler inspects the chain and picks a
// status: split failures carry their field, parameter or window as extensions,
// dataset lookups become 404 or 400, and context expiry becomes 504. Anything
// unrecognised is a 500 with a generic detail.
package errors
