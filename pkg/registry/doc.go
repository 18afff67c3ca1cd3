// Package registry resolves entry functions by name for definitions loaded from YAML.
package registry
