// Package repository persists wrapped data keys.
//
// Only the KMS-wrapped form of a key is ever stored. Implementations exist
// for the local bbolt file (default), PostgreSQL and MySQL (sharing the
// preference store's database), and memory (tests).
package repository
