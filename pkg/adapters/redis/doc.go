// Package redis provides a Redis backed snapshot adapter and distributed locker.
package redis
