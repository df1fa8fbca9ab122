package domain

// Domain contains core models shared by the client, the store and the server.

// Article is the record transferred over the /articles resource.
type Article struct {
	ID     int64  `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Body   string `json:"body" yaml:"body"`
	Author string `json:"author" yaml:"author"`
}

// SameContent reports whether a and b carry equal content fields, ignoring ID.
func (a Article) SameContent(b Article) bool {
	return a.Title == b.Title && a.Body == b.Body && a.Author == b.Author
}
