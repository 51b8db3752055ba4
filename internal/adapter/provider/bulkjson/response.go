package bulkjson

// apiBook is one book of a whole-translation JSON file. Chapters holds the
// verse texts of each chapter in order.
type apiBook struct {
	Abbrev   string     `json:"abbrev"`
	Name     string     `json:"name"`
	Chapters [][]string `json:"chapters"`
}
