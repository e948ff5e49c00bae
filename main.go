package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

var db *sql.DB

func main() {
	godotenv.Load()

	var err error
	db, err = sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal("Error al abrir la conexión con la base de datos:", err)
	}
	defer db.Close()

	if err = db.Ping(); err != nil {
		log.Fatal("No se pudo contactar la base de datos:", err)
	}
	log.Println("Conectado a PostgreSQL")

	if err = initSchema(); err != nil {
		log.Fatal("Error al preparar el esquema:", err)
	}
	if err = seedAdmin(getenv("ADMIN_USER", "admin"), getenv("ADMIN_PASSWORD", "admin123")); err != nil {
		log.Fatal("Error al crear el usuario administrador:", err)
	}

	r := setupRouter()

	port := getenv("PORT", "5000")
	log.Println("Servidor escuchando en el puerto", port)
	if err = r.Run(":" + port); err != nil {
		log.Fatal("Error del servidor:", err)
	}
}

func getenv(clave, porDefecto string) string {
	if v := os.Getenv(clave); v != "" {
		return v
	}
	return porDefecto
}

func initSchema() error {
	esquema := []string{
		`CREATE TABLE IF NOT EXISTS alumnos (
			numero_control   TEXT PRIMARY KEY,
			nombre           TEXT NOT NULL,
			carrera          TEXT NOT NULL,
			semestre         TEXT NOT NULL DEFAULT '',
			avance_reticular TEXT NOT NULL DEFAULT '',
			asistencia       BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS usuarios (
			username      TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL
		)`,
	}
	for _, sentencia := range esquema {
		if _, err := db.Exec(sentencia); err != nil {
			return fmt.Errorf("error de base de datos: %w", err)
		}
	}
	return nil
}

func setupRouter() *gin.Engine {
	r := gin.Default()
	r.LoadHTMLGlob("templates/*")
	r.Static("/static", "./static")

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	store := cookie.NewStore([]byte(getenv("SECRET_KEY", "tu_clave_secreta_aqui")))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("asistencia_session", store))

	r.GET("/login", loginHandler)
	r.POST("/login", loginHandler)
	r.GET("/logout", logoutHandler)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Las rutas de QR son públicas por defecto para que un módulo de
	// escaneo funcione sin sesión; QR_PUBLICO=false las protege también.
	qr := r.Group("/")
	if getenv("QR_PUBLICO", "true") == "false" {
		qr.Use(requireLogin())
	}
	qr.GET("/generar_qr", generarQRHandler)
	qr.POST("/generar_qr", generarQRHandler)
	qr.GET("/asistencia_qr", asistenciaQRHandler)
	qr.POST("/leer_qr", leerQRHandler)

	protegido := r.Group("/", requireLogin())
	protegido.GET("/", homeHandler)
	protegido.GET("/añadir_alumno", añadirAlumnoHandler)
	protegido.POST("/añadir_alumno", añadirAlumnoHandler)
	protegido.GET("/upload_csv", uploadCSVHandler)
	protegido.POST("/upload_csv", uploadCSVHandler)
	protegido.GET("/exportar_csv", exportarCSVHandler)
	protegido.GET("/filtro_asistencia", filtroAsistenciaHandler)
	protegido.GET("/filtro_carrera/:carrera", filtroCarreraHandler)
	protegido.POST("/eliminar_todos_alumnos", eliminarTodosAlumnosHandler)

	return r
}
