package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func renderPadron(c *gin.Context, alumnos []Alumno, err error) {
	if err != nil {
		log.Printf("Error al consultar el padrón: %v", err)
		c.HTML(http.StatusInternalServerError, "index.html", gin.H{
			"Error": "No se pudo consultar la lista de alumnos",
		})
		return
	}
	categoria, mensaje := takeFlash(c)
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Alumnos":        alumnos,
		"Flash":          mensaje,
		"FlashCategoria": categoria,
	})
}

func homeHandler(c *gin.Context) {
	alumnos, err := listarAlumnos()
	renderPadron(c, alumnos, err)
}

func filtroAsistenciaHandler(c *gin.Context) {
	alumnos, err := filtrarPorAsistencia(true)
	renderPadron(c, alumnos, err)
}

func filtroCarreraHandler(c *gin.Context) {
	alumnos, err := filtrarPorCarrera(c.Param("carrera"))
	renderPadron(c, alumnos, err)
}

func generarQRHandler(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		c.HTML(http.StatusOK, "generar_qr.html", gin.H{})
		return
	}

	numeroControl := c.PostForm("numero_control")
	qr, err := codigoQRBase64(numeroControl)
	if err != nil {
		c.HTML(http.StatusBadRequest, "generar_qr.html", gin.H{
			"Error": "Proporciona un número de control",
		})
		return
	}
	c.HTML(http.StatusOK, "generar_qr.html", gin.H{
		"QRCode":        qr,
		"NumeroControl": strings.TrimSpace(numeroControl),
	})
}

func asistenciaQRHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "leer_asistencia_qr.html", gin.H{})
}

func leerQRHandler(c *gin.Context) {
	var datos struct {
		QRData string `json:"qr_data"`
	}
	if err := c.ShouldBindJSON(&datos); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "No se recibieron datos"})
		return
	}
	if datos.QRData == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Número de control no proporcionado"})
		return
	}

	alumno, err := registrarAsistencia(datos.QRData)
	switch {
	case errors.Is(err, ErrAlumnoNoEncontrado):
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": fmt.Sprintf("Alumno con número de control %s no encontrado", datos.QRData),
		})
	case err != nil:
		log.Printf("Error en leer_qr: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Error interno del servidor"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Asistencia registrada correctamente",
			"alumno": gin.H{
				"numero_control": alumno.NumeroControl,
				"nombre":         alumno.Nombre,
				"asistencia":     alumno.Asistencia,
			},
		})
	}
}

func añadirAlumnoHandler(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		c.Redirect(http.StatusFound, "/")
		return
	}

	alumno := Alumno{
		NumeroControl:   strings.TrimSpace(c.PostForm("numero_control")),
		Nombre:          strings.TrimSpace(c.PostForm("nombre")),
		Carrera:         strings.TrimSpace(c.PostForm("carrera")),
		Semestre:        strings.TrimSpace(c.PostForm("semestre")),
		AvanceReticular: strings.TrimSpace(c.PostForm("reticula")),
	}
	if alumno.NumeroControl == "" || alumno.Nombre == "" || alumno.Carrera == "" {
		setFlash(c, "error", "Todos los campos son obligatorios")
		c.Redirect(http.StatusFound, "/")
		return
	}

	switch err := insertarAlumno(alumno); {
	case errors.Is(err, ErrNumeroControlDuplicado):
		setFlash(c, "error", fmt.Sprintf("El número de control %s ya existe", alumno.NumeroControl))
	case err != nil:
		log.Printf("Error al agregar alumno: %v", err)
		setFlash(c, "error", "No se pudo agregar al alumno")
	default:
		setFlash(c, "success", fmt.Sprintf("Alumno %s agregado correctamente", alumno.NumeroControl))
	}
	c.Redirect(http.StatusFound, "/")
}

func uploadCSVHandler(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		c.Redirect(http.StatusFound, "/")
		return
	}

	archivo, err := c.FormFile("archivo-csv")
	if err != nil || archivo.Filename == "" {
		setFlash(c, "error", "No se seleccionó ningún archivo")
		c.Redirect(http.StatusFound, "/")
		return
	}
	if !strings.EqualFold(filepath.Ext(archivo.Filename), ".csv") {
		setFlash(c, "error", "El archivo debe ser un CSV (.csv)")
		c.Redirect(http.StatusFound, "/")
		return
	}

	contenido, err := archivo.Open()
	if err != nil {
		setFlash(c, "error", "Error al procesar el archivo")
		c.Redirect(http.StatusFound, "/")
		return
	}
	defer contenido.Close()

	resumen, err := importarCSV(contenido)
	if err != nil {
		var faltantes *ErrorColumnasFaltantes
		if errors.As(err, &faltantes) {
			setFlash(c, "error", "Faltan las siguientes columnas en el CSV: "+strings.Join(faltantes.Columnas, ", "))
		} else {
			log.Printf("Error al importar CSV: %v", err)
			setFlash(c, "error", "Error al insertar datos")
		}
		c.Redirect(http.StatusFound, "/")
		return
	}

	log.Printf("Importación CSV: %d insertados, %d duplicados, %d errores",
		resumen.Insertados, resumen.Duplicados, len(resumen.Errores))
	setFlash(c, "success", resumen.Mensaje())
	c.Redirect(http.StatusFound, "/")
}

func exportarCSVHandler(c *gin.Context) {
	alumnos, err := listarAlumnos()
	if err != nil {
		log.Printf("Error al exportar CSV: %v", err)
		c.String(http.StatusInternalServerError, "No se pudo exportar el padrón")
		return
	}

	var buf bytes.Buffer
	escritor := csv.NewWriter(&buf)
	escritor.Write([]string{"NUMERO_CONTROL", "NOMBRE", "CARRERA", "SEMESTRE", "AVANCE_RETICULAR", "ASISTENCIA"})
	for _, a := range alumnos {
		asistencia := "0"
		if a.Asistencia {
			asistencia = "1"
		}
		escritor.Write([]string{a.NumeroControl, a.Nombre, a.Carrera, a.Semestre, a.AvanceReticular, asistencia})
	}
	escritor.Flush()
	if err := escritor.Error(); err != nil {
		c.String(http.StatusInternalServerError, "No se pudo exportar el padrón")
		return
	}

	nombreArchivo := "alumnos_" + time.Now().Format("20060102_150405") + ".csv"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", nombreArchivo))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func eliminarTodosAlumnosHandler(c *gin.Context) {
	eliminados, err := eliminarTodosAlumnos()
	if err != nil {
		log.Printf("Error al eliminar alumnos: %v", err)
		setFlash(c, "error", "No se pudieron eliminar los alumnos")
	} else {
		setFlash(c, "success", fmt.Sprintf("Se eliminaron %d alumnos", eliminados))
	}
	c.Redirect(http.StatusFound, "/")
}
