// Package cache stores rewrite results on disk so unchanged inputs are not
// converted again. Entries are keyed by the rule table fingerprint and the
// normalised content hash and encoded with msgpack.
package cache
