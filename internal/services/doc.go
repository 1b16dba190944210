// Package services defines shared utilities consumed by the download manager,
// the fetch pipeline, and the daemon surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp queue entry IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures from external
//     tools, validation, and timeouts can be classified with errors.Is.
package services
