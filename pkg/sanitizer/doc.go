// Package sanitizer normalizes caller-supplied data before validation and
// storage. Voice transcription produces messy input ("john doe",
// "(555) 123-4567", "JOHN@EXAMPLE.COM"), so every field is normalized to a
// canonical form first.
//
// All functions are idempotent and handle invalid input gracefully, returning
// empty strings rather than errors.
//
// Normalization includes:
//   - Phone numbers: E.164 format (+[country][number])
//   - Names: collapsed whitespace, Title Case
//   - Emails: trimmed and lowercased
package sanitizer
