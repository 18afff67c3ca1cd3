// Package codec provides the serialization formats shared by the durable adapters.
//
// JSON is the default. YAML is convenient for hand-inspected file stores, and
// Encrypted wraps either with AES-GCM and supports key rotation through fallback keys.
package codec
