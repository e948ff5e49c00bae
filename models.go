package main

import "errors"

// Alumno es un registro del padrón, identificado por su número de control.
type Alumno struct {
	NumeroControl   string `json:"numero_control"`
	Nombre          string `json:"nombre"`
	Carrera         string `json:"carrera"`
	Semestre        string `json:"semestre"`
	AvanceReticular string `json:"avance_reticular"`
	Asistencia      bool   `json:"asistencia"`
}

var (
	// ErrNumeroControlDuplicado indica que el número de control ya existe en el padrón.
	ErrNumeroControlDuplicado = errors.New("el número de control ya existe")

	// ErrAlumnoNoEncontrado indica que ningún alumno coincide con el número de control dado.
	ErrAlumnoNoEncontrado = errors.New("alumno no encontrado")

	// ErrNumeroControlVacio indica que no se proporcionó un número de control.
	ErrNumeroControlVacio = errors.New("número de control no proporcionado")
)
