package models

// Materia is a catalog subject referenced by name from Horarios and Evaluaciones.
type Materia struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Semester string `json:"semester" yaml:"semester"`
	Credits  int    `json:"credits" yaml:"credits"`
}
