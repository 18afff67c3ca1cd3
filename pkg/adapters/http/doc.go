// Package http serves a bound machine as a small JSON API built on chi.
package http
