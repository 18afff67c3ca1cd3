// Package file stores actor snapshots as files in a local directory.
package file
