// Package textutil turns video titles and channel identifiers into names that
// are safe to use as path segments in the storage tree.
package textutil
