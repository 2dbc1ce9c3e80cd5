// Package password hashes and verifies account passwords.
//
// New digests are Argon2id in the PHC string format:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
//
// Verify also accepts bcrypt digests ($2a$, $2b$, $2y$) written by earlier
// deployments of the directory. Digests are untrusted input during Verify:
// malformed strings and out-of-bounds cost parameters are rejected, never
// panicked on.
package password
