package bolls

// apiVerse is one element of the bolls.life get-text response.
type apiVerse struct {
	PK      int    `json:"pk"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
	Comment string `json:"comment,omitempty"`
}
