package domain

type Genre struct {
	ID    string `json:"id" validate:"required"`
	Type  string `json:"type" validate:"required,eq=Genre"`
	Genre string `json:"genre" validate:"required"`
}
