// Package value defines the data values that flow through query results.
//
// Values are plain Go values: nil for NULL, int64 and float64 for numbers,
// string for text and []byte for blobs. Other integer and float kinds and
// bool are accepted and treated as numbers. Three composite types
// complete the model:
//
//   - Tuple: one data element holding several fields
//   - Set: a materialised collection without duplicates
//   - Map: an insertion-ordered mapping with arbitrary keys
//
// Equality for deduplication and map lookup goes through Key, which encodes
// a value into a string so that 1, 1.0 and true collide while "1" does not.
// Ordering goes through SortKeyOf and Compare, which reproduce SQLite's
// cross-type ordering: NULL < numbers < text < blobs < everything else.
package value
