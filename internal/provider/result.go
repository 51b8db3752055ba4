// Package provider holds the types shared by verse source adapters: the raw
// verse shape they return and the typed errors the importer classifies.
package provider

// RawVerse is a verse as returned by a source, before normalization.
type RawVerse struct {
	Number int
	Text   string
}
