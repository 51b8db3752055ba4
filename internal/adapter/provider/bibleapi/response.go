package bibleapi

// apiChapter is the bible-api.com response for a passage request.
// Verses is a pointer so a missing array can be told apart from an empty one.
type apiChapter struct {
	Reference     string      `json:"reference"`
	Verses        *[]apiVerse `json:"verses"`
	TranslationID string      `json:"translation_id"`
	Error         string      `json:"error"`
}

// apiVerse is a single verse of a passage.
type apiVerse struct {
	BookName string `json:"book_name"`
	Chapter  int    `json:"chapter"`
	Verse    int    `json:"verse"`
	Text     string `json:"text"`
}
