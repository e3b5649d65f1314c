// Package allocation implements the FIFO batch splitter used for bottling.
//
// Given the hydrogen steps available in a storage unit and a requested
// composition, Allocate decides which batches go into the bottle whole and
// which single batch per class must be split into a consumed part and a
// remainder.
//
// Ordering is the caller's FIFO policy: steps are consumed in the order
// they are passed in (typically oldest first). Each requested component
// is allocated independently; there is no accounting across RFNBO classes.
//
// Split steps copy their parent's StartedAt and EndedAt verbatim. The
// remainder is therefore back-dated to its parent and, under an
// oldest-first policy, is consumed before newer inventory. This is an
// explicit policy and not FIFO by creation time.
package allocation
