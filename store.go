package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const columnasAlumno = "numero_control, nombre, carrera, semestre, avance_reticular, asistencia"

// codigoDuplicado es el código SQLSTATE de violación de unicidad en PostgreSQL.
const codigoDuplicado = "23505"

func escanearAlumno(fila *sql.Row) (*Alumno, error) {
	var a Alumno
	err := fila.Scan(&a.NumeroControl, &a.Nombre, &a.Carrera, &a.Semestre, &a.AvanceReticular, &a.Asistencia)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlumnoNoEncontrado
		}
		return nil, fmt.Errorf("error de base de datos: %w", err)
	}
	return &a, nil
}

func escanearAlumnos(filas *sql.Rows) ([]Alumno, error) {
	defer filas.Close()

	var alumnos []Alumno
	for filas.Next() {
		var a Alumno
		if err := filas.Scan(&a.NumeroControl, &a.Nombre, &a.Carrera, &a.Semestre, &a.AvanceReticular, &a.Asistencia); err != nil {
			return nil, fmt.Errorf("error de base de datos: %w", err)
		}
		alumnos = append(alumnos, a)
	}
	if err := filas.Err(); err != nil {
		return nil, fmt.Errorf("error de base de datos: %w", err)
	}
	return alumnos, nil
}

func listarAlumnos() ([]Alumno, error) {
	filas, err := db.Query("SELECT " + columnasAlumno + " FROM alumnos")
	if err != nil {
		return nil, fmt.Errorf("error de base de datos: %w", err)
	}
	return escanearAlumnos(filas)
}

func filtrarPorAsistencia(presente bool) ([]Alumno, error) {
	filas, err := db.Query("SELECT "+columnasAlumno+" FROM alumnos WHERE asistencia = $1", presente)
	if err != nil {
		return nil, fmt.Errorf("error de base de datos: %w", err)
	}
	return escanearAlumnos(filas)
}

// filtrarPorCarrera compara sin distinguir mayúsculas: la entrada se
// convierte a mayúsculas antes de compararla contra UPPER(carrera).
func filtrarPorCarrera(carrera string) ([]Alumno, error) {
	filas, err := db.Query("SELECT "+columnasAlumno+" FROM alumnos WHERE UPPER(carrera) = $1", strings.ToUpper(carrera))
	if err != nil {
		return nil, fmt.Errorf("error de base de datos: %w", err)
	}
	return escanearAlumnos(filas)
}

func buscarAlumno(numeroControl string) (*Alumno, error) {
	fila := db.QueryRow("SELECT "+columnasAlumno+" FROM alumnos WHERE numero_control = $1", numeroControl)
	return escanearAlumno(fila)
}

// insertarAlumno agrega un registro nuevo. Devuelve ErrNumeroControlDuplicado
// si el número de control ya existe; el registro previo queda intacto.
func insertarAlumno(a Alumno) error {
	_, err := db.Exec(
		`INSERT INTO alumnos (numero_control, nombre, carrera, semestre, avance_reticular)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.NumeroControl, a.Nombre, a.Carrera, a.Semestre, a.AvanceReticular,
	)
	if err != nil {
		var errPQ *pq.Error
		if errors.As(err, &errPQ) && errPQ.Code == codigoDuplicado {
			return ErrNumeroControlDuplicado
		}
		return fmt.Errorf("error de base de datos: %w", err)
	}
	return nil
}

// registrarAsistencia marca presente al alumno y devuelve el registro
// actualizado. Es idempotente: volver a escanear a un alumno ya presente
// es un éxito sin efecto. La búsqueda es por coincidencia exacta.
func registrarAsistencia(numeroControl string) (*Alumno, error) {
	if numeroControl == "" {
		return nil, ErrNumeroControlVacio
	}
	fila := db.QueryRow(
		"UPDATE alumnos SET asistencia = TRUE WHERE numero_control = $1 RETURNING "+columnasAlumno,
		numeroControl,
	)
	return escanearAlumno(fila)
}

// eliminarTodosAlumnos vacía el padrón y devuelve cuántos registros había.
func eliminarTodosAlumnos() (int64, error) {
	resultado, err := db.Exec("DELETE FROM alumnos")
	if err != nil {
		return 0, fmt.Errorf("error de base de datos: %w", err)
	}
	eliminados, err := resultado.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error de base de datos: %w", err)
	}
	return eliminados, nil
}
