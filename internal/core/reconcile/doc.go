// Package reconcile merges a cached snapshot with a fresh, lazily paged remote read.
//
// Stars arrive most-recent-first with a known total, so the reconciler can stop
// as soon as the unread remote remainder is fully accounted for by the cached
// prefix. Issues arrive ascending by number, scoped by a since watermark, and
// replace cached copies by number.
package reconcile
