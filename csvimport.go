package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Columnas que el CSV debe traer; SEMESTRE y AVANCE_RETICULAR son opcionales.
var columnasRequeridas = []string{"NUMERO_CONTROL", "NOMBRE", "CARRERA"}

// Motivos estables para los errores por fila.
const (
	MotivoFilaIncompleta = "fila_incompleta"
	MotivoCampoVacio     = "campo_vacio"
	MotivoErrorBD        = "error_bd"
)

// ErrorFila es una falla aislada de una fila del CSV. Fila es 1-based y
// cuenta el encabezado, igual que en el archivo que ve el usuario.
type ErrorFila struct {
	Fila   int
	Motivo string
}

func (e ErrorFila) Error() string {
	return fmt.Sprintf("error en fila %d: %s", e.Fila, e.Motivo)
}

// ErrorColumnasFaltantes indica que el encabezado del CSV no trae todas
// las columnas requeridas; no se procesa ninguna fila.
type ErrorColumnasFaltantes struct {
	Columnas []string
}

func (e *ErrorColumnasFaltantes) Error() string {
	return "faltan las siguientes columnas en el CSV: " + strings.Join(e.Columnas, ", ")
}

// ResumenImportacion acumula el resultado de conciliar un CSV con el padrón.
type ResumenImportacion struct {
	Insertados int
	Duplicados int
	Errores    []ErrorFila
}

// Mensaje arma el texto que se le muestra al usuario tras la importación.
func (r *ResumenImportacion) Mensaje() string {
	mensaje := fmt.Sprintf("Se insertaron %d registros correctamente", r.Insertados)
	if r.Duplicados > 0 {
		mensaje += fmt.Sprintf(". %d registros duplicados fueron omitidos", r.Duplicados)
	}
	if len(r.Errores) > 0 {
		mensaje += fmt.Sprintf(". %d errores encontrados", len(r.Errores))
	}
	return mensaje
}

// normalizarEncabezado mapea cada nombre de columna, recortado y en
// mayúsculas, a su posición. Si una columna se repite gana la primera.
func normalizarEncabezado(encabezado []string) map[string]int {
	indices := make(map[string]int, len(encabezado))
	for i, nombre := range encabezado {
		nombre = strings.ToUpper(strings.TrimSpace(nombre))
		if _, ok := indices[nombre]; !ok {
			indices[nombre] = i
		}
	}
	return indices
}

// importarCSV concilia el archivo con el padrón: inserta filas nuevas,
// omite duplicados y registra errores por fila sin abortar el lote.
// Siempre se cumple Insertados + Duplicados + len(Errores) == filas de datos.
func importarCSV(r io.Reader) (*ResumenImportacion, error) {
	lector := csv.NewReader(r)
	lector.FieldsPerRecord = -1

	encabezado, err := lector.Read()
	if err != nil {
		return nil, fmt.Errorf("no se pudo leer el encabezado del CSV: %w", err)
	}
	indices := normalizarEncabezado(encabezado)

	var faltantes []string
	for _, columna := range columnasRequeridas {
		if _, ok := indices[columna]; !ok {
			faltantes = append(faltantes, columna)
		}
	}
	if len(faltantes) > 0 {
		return nil, &ErrorColumnasFaltantes{Columnas: faltantes}
	}

	resumen := &ResumenImportacion{}
	for fila := 2; ; fila++ {
		registro, err := lector.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			resumen.Errores = append(resumen.Errores, ErrorFila{Fila: fila, Motivo: MotivoFilaIncompleta})
			continue
		}

		campo := func(columna string) string {
			i, ok := indices[columna]
			if !ok || i >= len(registro) {
				return ""
			}
			return strings.TrimSpace(registro[i])
		}

		incompleta := false
		for _, columna := range columnasRequeridas {
			if indices[columna] >= len(registro) {
				incompleta = true
				break
			}
		}
		if incompleta {
			resumen.Errores = append(resumen.Errores, ErrorFila{Fila: fila, Motivo: MotivoFilaIncompleta})
			continue
		}

		a := Alumno{
			NumeroControl:   campo("NUMERO_CONTROL"),
			Nombre:          campo("NOMBRE"),
			Carrera:         campo("CARRERA"),
			Semestre:        campo("SEMESTRE"),
			AvanceReticular: campo("AVANCE_RETICULAR"),
		}
		if a.NumeroControl == "" || a.Nombre == "" || a.Carrera == "" {
			resumen.Errores = append(resumen.Errores, ErrorFila{Fila: fila, Motivo: MotivoCampoVacio})
			continue
		}

		_, err = buscarAlumno(a.NumeroControl)
		switch {
		case err == nil:
			resumen.Duplicados++
			continue
		case !errors.Is(err, ErrAlumnoNoEncontrado):
			resumen.Errores = append(resumen.Errores, ErrorFila{Fila: fila, Motivo: MotivoErrorBD})
			continue
		}

		switch err := insertarAlumno(a); {
		case err == nil:
			resumen.Insertados++
		case errors.Is(err, ErrNumeroControlDuplicado):
			// Otro proceso lo insertó entre la búsqueda y el insert.
			resumen.Duplicados++
		default:
			resumen.Errores = append(resumen.Errores, ErrorFila{Fila: fila, Motivo: MotivoErrorBD})
		}
	}
	return resumen, nil
}
