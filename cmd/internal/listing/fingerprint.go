// Package listing derives cache validators for the account listing.
package listing

import (
	"encoding/binary"
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// CacheControl is sent with every full listing response: clients may keep
// the body but must revalidate before reuse.
const CacheControl = "private, no-cache"

// Entry is the part of a record that contributes to the fingerprint.
type Entry struct {
	ID       string
	Username string
	Email    string
}

// Fingerprint hashes the ordered entries with xxhash64 and renders the
// digest as a quoted 16-digit hex string, usable as a strong ETag.
// Each field is length-prefixed, so ("ab","c") and ("a","bc") differ.
// The same ordered input always yields the same string; reordering changes it.
func Fingerprint(entries []Entry) string {
	d := xxhash.New()
	var n [8]byte
	write := func(s string) {
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		_, _ = d.Write(n[:])
		_, _ = d.WriteString(s)
	}

	binary.BigEndian.PutUint64(n[:], uint64(len(entries)))
	_, _ = d.Write(n[:])
	for _, e := range entries {
		write(e.ID)
		write(e.Username)
		write(e.Email)
	}
	return fmt.Sprintf("%q", fmt.Sprintf("%016x", d.Sum64()))
}

// Matches reports whether an If-None-Match header value matches etag.
// It understands "*", comma-separated lists and weak (W/) validators,
// using the weak comparison If-None-Match calls for.
func Matches(ifNoneMatch, etag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" || etag == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, cand := range strings.Split(ifNoneMatch, ",") {
		cand = strings.TrimPrefix(strings.TrimSpace(cand), "W/")
		if cand == want {
			return true
		}
	}
	return false
}

// NotModified sets the validator headers and reports whether r already holds
// the current representation. When it returns true the caller must send 304
// with no body.
func NotModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	h := w.Header()
	h.Set("ETag", etag)
	h.Set("Cache-Control", CacheControl)
	return Matches(r.Header.Get("If-None-Match"), etag)
}
