// Package workflow runs queued session conversions on a fixed-size worker
// pool. Workers share no parse state: each claims one queue item, converts
// it in isolation, and records the outcome on the item. A failed session
// produces an error artifact and a failed row; it never aborts the batch.
package workflow
