// Package mimeword implements the MIME decoder collaborator: it turns
// RFC 2047 encoded words (=?charset?encoding?payload?=) embedded in
// header-derived text into UTF-8, passing ASCII runs through untouched.
package mimeword

import (
	"encoding/base64"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// encodedWord matches a single =?charset?enc?payload?= token. The payload
// group excludes '?' so a malformed word (missing a field, or an extra
// '?') simply fails to match and is handled by the malformed-word
// fallback below instead of silently mis-splitting.
var encodedWord = regexp.MustCompile(`=\?([^?\s]*)\?([^?\s]*)\?([^?]*)\?=`)

// looksLikeWord flags a run that was clearly *attempting* to be an
// encoded word (starts with "=?" and ends with "?=") but didn't match
// encodedWord, so it becomes a placeholder too rather than passing the
// broken token through verbatim.
var looksLikeWord = regexp.MustCompile(`=\?\S*\?=`)

const malformedPlaceholder = "[malformed encoded word]"

// Decode replaces every encoded word in s with its UTF-8 decoding,
// leaving everything else (including plain ASCII) untouched.
func Decode(s string) string {
	// First pass: well-formed words get decoded or get a specific
	// unsupported-charset/encoding placeholder.
	out := encodedWord.ReplaceAllStringFunc(s, func(tok string) string {
		m := encodedWord.FindStringSubmatch(tok)
		charset, enc, payload := m[1], m[2], m[3]
		return decodeOne(charset, enc, payload)
	})
	// Second pass: anything still shaped like "=?...?=" that the first
	// pass didn't touch was malformed (wrong number of fields, empty
	// charset, etc.) — replace it with the generic placeholder.
	out = looksLikeWord.ReplaceAllString(out, malformedPlaceholder)
	return out
}

func decodeOne(charset, enc, payload string) string {
	if charset == "" {
		return malformedPlaceholder
	}
	if !strings.EqualFold(enc, "B") {
		return "[unsupported encoding: " + enc + "]"
	}
	if !strings.EqualFold(charset, "utf-8") {
		return "[unsupported charset: " + canonicalCharset(charset) + "]"
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return malformedPlaceholder
	}
	return string(decoded)
}

// canonicalCharset resolves charset to its IANA-registered name when
// golang.org/x/text recognizes it, so the placeholder names the charset
// the way a human would expect ("ISO-8859-1" rather than "latin1").
// Unknown names are reported as given.
func canonicalCharset(charset string) string {
	enc, err := ianaindex.MIME.Encoding(charset)
	if err != nil || enc == nil {
		return charset
	}
	name, err := ianaindex.MIME.Name(enc)
	if err != nil || name == "" {
		return charset
	}
	return name
}
