package domain

// Resource discriminators stored in the document "type" field.
const (
	TypeActor = "Actor"
	TypeMovie = "Movie"
	TypeGenre = "Genre"
)
