// Package conv converts integers read from untrusted input, such as file
// headers, with bounds checks.
package conv
