package domain

// Movie is a film document. TextSearch must always equal the lowercased Title.
type Movie struct {
	ID         string   `json:"id" validate:"required,alphanum"`
	MovieID    string   `json:"movieId" validate:"required,alphanum"`
	Title      string   `json:"title" validate:"required,notblank"`
	TextSearch string   `json:"textSearch" validate:"required"`
	Type       string   `json:"type" validate:"required,eq=Movie"`
	Year       *int     `json:"year,omitempty" validate:"omitempty,gte=0"`
	Rating     *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=10"`
	Votes      *int64   `json:"votes,omitempty" validate:"omitempty,gte=0"`
	Genres     []string `json:"genres,omitempty" validate:"omitempty,dive,required"`
	Roles      []Role   `json:"roles,omitempty" validate:"omitempty,dive"`
}

// Role is the denormalized cast entry embedded in a movie.
type Role struct {
	ActorID    string   `json:"actorId" validate:"required"`
	Name       string   `json:"name,omitempty"`
	Order      int      `json:"order,omitempty"`
	Category   string   `json:"category,omitempty"`
	Characters []string `json:"characters,omitempty"`
}

// MovieFields is the projection used when listing or fetching movies.
var MovieFields = []string{"id", "movieId", "type", "title", "textSearch", "year", "rating", "votes", "genres", "roles"}
