package domain

// Actor is a person document. TextSearch must always equal the lowercased Name.
type Actor struct {
	ID         string       `json:"id" validate:"required,alphanum"`
	ActorID    string       `json:"actorId" validate:"required,alphanum"`
	Name       string       `json:"name" validate:"required,notblank"`
	TextSearch string       `json:"textSearch" validate:"required"`
	Type       string       `json:"type" validate:"required,eq=Actor"`
	BirthYear  *int         `json:"birthYear,omitempty" validate:"omitempty,gte=0"`
	Profession []string     `json:"profession,omitempty"`
	Movies     []ActorMovie `json:"movies,omitempty" validate:"omitempty,dive"`
}

// ActorMovie is the denormalized movie reference embedded in an actor.
type ActorMovie struct {
	MovieID string `json:"movieId" validate:"required"`
	Title   string `json:"title,omitempty"`
}

// ActorFields is the projection used when listing or fetching actors.
var ActorFields = []string{"id", "actorId", "type", "name", "textSearch", "birthYear", "profession", "movies"}
