// Package repository stores encrypted preference entries.
//
// Repositories never see plaintext: ids are HMACs of key names and payloads
// are sealed blobs. The reserved meta record (domain.MetaRecordID) survives
// Clear and is excluded from List.
package repository
