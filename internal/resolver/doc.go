// Package resolver runs the clustering pipeline: it loads pending raw
// listings, assigns each to a canonical product through the fingerprint
// cascade, and commits the resulting product and offer set in a single
// transaction. A file lock keeps runs single-instance per database.
package resolver
