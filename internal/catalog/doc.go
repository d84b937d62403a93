// Package catalog manages the SQLite store holding raw vendor listings and
// the derived canonical product catalog.
//
// Raw listings are the durable source of truth; scrapers append to them and
// the resolver only ever touches their processed flag and resolved-product
// back-reference. Products and offers are a rebuildable projection: the
// resolver computes them in memory and commits them through a single
// transaction, so a run is never partially visible. WAL mode keeps readers
// (the API serving canonical data) live while scrapers and the resolver
// write.
package catalog
