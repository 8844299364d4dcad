// Package sanitizer normalizes free-form operator and customer input before
// validation and storage.
//
// All functions are idempotent and never fail: unusable input collapses to
// the empty string (or an empty slice), which validation then rejects.
package sanitizer
