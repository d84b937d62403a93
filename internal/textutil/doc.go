// Package textutil provides tokenization, slug generation, and text
// similarity scoring shared by the normalizer and the cluster matcher.
package textutil
