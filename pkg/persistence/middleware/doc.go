// Package middleware decorates storage adapters with cross-cutting behavior
// such as logging and tracing. Decorators keep the List and Delete
// capabilities of the adapter they wrap.
package middleware
