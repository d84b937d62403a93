// Command tooltally resolves scraped UK tool-vendor listings into a
// canonical product catalog and maintains it: ingest loads scraper output,
// resolve clusters listings into products and offers, dedupe collapses
// duplicate offers, and health reports catalog state.
package main
