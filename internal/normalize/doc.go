// Package normalize canonicalizes scraped listing text: brand names,
// vendor category strings, and the model, voltage, and kit tokens buried in
// titles. Everything here is a pure function over lookup tables, and every
// input produces some usable result; degraded fallbacks are preferred over
// rejection so no listing is ever dropped at this layer.
package normalize
