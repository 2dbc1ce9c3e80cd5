// Package identity holds the account directory: the Account record, the
// credential store boundary, and its memory, PostgreSQL and MongoDB backends.
//
// Stores never hash passwords themselves; callers hand over a finished digest.
package identity
