package main

import (
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	consultaBusqueda = regexp.QuoteMeta("WHERE numero_control = $1")
	consultaInsert   = regexp.QuoteMeta("INSERT INTO alumnos")
)

func TestImportarCSV_ColumnasFaltantes(t *testing.T) {
	mock := nuevaBaseMock(t)

	_, err := importarCSV(strings.NewReader("NUMERO_CONTROL,NOMBRE\nA1,Ana\n"))

	var faltantes *ErrorColumnasFaltantes
	require.ErrorAs(t, err, &faltantes)
	assert.Equal(t, []string{"CARRERA"}, faltantes.Columnas)
	// ninguna fila debe tocarse cuando el encabezado está incompleto
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportarCSV_NuevosYDuplicados(t *testing.T) {
	mock := nuevaBaseMock(t)
	mock.ExpectQuery(consultaBusqueda).WithArgs("A1").
		WillReturnRows(filaAlumno(Alumno{NumeroControl: "A1", Nombre: "Ana", Carrera: "CS"}))
	mock.ExpectQuery(consultaBusqueda).WithArgs("A2").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(consultaInsert).WithArgs("A2", "Beto", "EE", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	resumen, err := importarCSV(strings.NewReader("NUMERO_CONTROL,NOMBRE,CARRERA\nA1,Ana,CS\nA2,Beto,EE\n"))

	require.NoError(t, err)
	assert.Equal(t, 1, resumen.Insertados)
	assert.Equal(t, 1, resumen.Duplicados)
	assert.Empty(t, resumen.Errores)
	assert.Equal(t, 2, resumen.Insertados+resumen.Duplicados+len(resumen.Errores))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportarCSV_ReimportarTodoDuplicado(t *testing.T) {
	mock := nuevaBaseMock(t)
	mock.ExpectQuery(consultaBusqueda).WithArgs("A1").
		WillReturnRows(filaAlumno(Alumno{NumeroControl: "A1", Nombre: "Ana", Carrera: "CS"}))
	mock.ExpectQuery(consultaBusqueda).WithArgs("A2").
		WillReturnRows(filaAlumno(Alumno{NumeroControl: "A2", Nombre: "Beto", Carrera: "EE"}))

	resumen, err := importarCSV(strings.NewReader("NUMERO_CONTROL,NOMBRE,CARRERA\nA1,Ana,CS\nA2,Beto,EE\n"))

	require.NoError(t, err)
	assert.Equal(t, 0, resumen.Insertados)
	assert.Equal(t, 2, resumen.Duplicados)
	assert.Empty(t, resumen.Errores)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportarCSV_EncabezadoDesordenadoYConEspacios(t *testing.T) {
	mock := nuevaBaseMock(t)
	mock.ExpectQuery(consultaBusqueda).WithArgs("A1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(consultaInsert).WithArgs("A1", "Ana", "CS", "5", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	csv := " nombre , Carrera ,NUMERO_CONTROL, semestre \nAna, CS ,A1,5\n"
	resumen, err := importarCSV(strings.NewReader(csv))

	require.NoError(t, err)
	assert.Equal(t, 1, resumen.Insertados)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportarCSV_FilaConCampoVacioNoAbortaElLote(t *testing.T) {
	mock := nuevaBaseMock(t)
	mock.ExpectQuery(consultaBusqueda).WithArgs("A2").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(consultaInsert).WithArgs("A2", "Beto", "EE", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	csv := "NUMERO_CONTROL,NOMBRE,CARRERA\nA1,,CS\nA2,Beto,EE\n"
	resumen, err := importarCSV(strings.NewReader(csv))

	require.NoError(t, err)
	assert.Equal(t, 1, resumen.Insertados)
	assert.Equal(t, 0, resumen.Duplicados)
	require.Len(t, resumen.Errores, 1)
	assert.Equal(t, ErrorFila{Fila: 2, Motivo: MotivoCampoVacio}, resumen.Errores[0])
	assert.Equal(t, 2, resumen.Insertados+resumen.Duplicados+len(resumen.Errores))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportarCSV_FilaCorta(t *testing.T) {
	nuevaBaseMock(t)

	resumen, err := importarCSV(strings.NewReader("NUMERO_CONTROL,NOMBRE,CARRERA\nA1\n"))

	require.NoError(t, err)
	require.Len(t, resumen.Errores, 1)
	assert.Equal(t, ErrorFila{Fila: 2, Motivo: MotivoFilaIncompleta}, resumen.Errores[0])
}

func TestImportarCSV_FallaDeInsercionSeAislaPorFila(t *testing.T) {
	mock := nuevaBaseMock(t)
	mock.ExpectQuery(consultaBusqueda).WithArgs("A1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(consultaInsert).WithArgs("A1", "Ana", "CS", "", "").
		WillReturnError(errors.New("conexión perdida"))
	mock.ExpectQuery(consultaBusqueda).WithArgs("A2").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(consultaInsert).WithArgs("A2", "Beto", "EE", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	csv := "NUMERO_CONTROL,NOMBRE,CARRERA\nA1,Ana,CS\nA2,Beto,EE\n"
	resumen, err := importarCSV(strings.NewReader(csv))

	require.NoError(t, err)
	assert.Equal(t, 1, resumen.Insertados)
	require.Len(t, resumen.Errores, 1)
	assert.Equal(t, ErrorFila{Fila: 2, Motivo: MotivoErrorBD}, resumen.Errores[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportarCSV_InsercionConcurrenteCuentaComoDuplicado(t *testing.T) {
	mock := nuevaBaseMock(t)
	mock.ExpectQuery(consultaBusqueda).WithArgs("A1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(consultaInsert).WithArgs("A1", "Ana", "CS", "", "").
		WillReturnError(&pq.Error{Code: codigoDuplicado})

	resumen, err := importarCSV(strings.NewReader("NUMERO_CONTROL,NOMBRE,CARRERA\nA1,Ana,CS\n"))

	require.NoError(t, err)
	assert.Equal(t, 0, resumen.Insertados)
	assert.Equal(t, 1, resumen.Duplicados)
	assert.Empty(t, resumen.Errores)
}

func TestNormalizarEncabezado(t *testing.T) {
	indices := normalizarEncabezado([]string{" numero_control ", "Nombre", "CARRERA"})

	assert.Equal(t, 0, indices["NUMERO_CONTROL"])
	assert.Equal(t, 1, indices["NOMBRE"])
	assert.Equal(t, 2, indices["CARRERA"])
}

func TestResumenMensaje(t *testing.T) {
	resumen := &ResumenImportacion{Insertados: 3}
	assert.Equal(t, "Se insertaron 3 registros correctamente", resumen.Mensaje())

	resumen = &ResumenImportacion{
		Insertados: 1,
		Duplicados: 2,
		Errores:    []ErrorFila{{Fila: 4, Motivo: MotivoCampoVacio}},
	}
	assert.Equal(t,
		"Se insertaron 1 registros correctamente. 2 registros duplicados fueron omitidos. 1 errores encontrados",
		resumen.Mensaje())
}
