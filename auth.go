package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	claveSesionUsuario  = "usuario"
	claveFlashMensaje   = "flash_mensaje"
	claveFlashCategoria = "flash_categoria"
)

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// seedAdmin crea la credencial de administrador si aún no existe.
// No hay registro de usuarios en la aplicación; esta es la única cuenta.
func seedAdmin(usuario, password string) error {
	var existe bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM usuarios WHERE username = $1)", usuario).Scan(&existe)
	if err != nil {
		return fmt.Errorf("error de base de datos: %w", err)
	}
	if existe {
		return nil
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		"INSERT INTO usuarios (username, password_hash) VALUES ($1, $2) ON CONFLICT (username) DO NOTHING",
		usuario, hash,
	)
	if err != nil {
		return fmt.Errorf("error de base de datos: %w", err)
	}
	log.Printf("Usuario administrador %q creado", usuario)
	return nil
}

func verificarCredenciales(usuario, password string) bool {
	var hash string
	err := db.QueryRow("SELECT password_hash FROM usuarios WHERE username = $1", usuario).Scan(&hash)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("Error al consultar credenciales: %v", err)
		}
		return false
	}
	return checkPasswordHash(password, hash)
}

func loginHandler(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		c.HTML(http.StatusOK, "login.html", gin.H{})
		return
	}

	usuario := c.PostForm("username")
	password := c.PostForm("password")
	if usuario == "" || password == "" || !verificarCredenciales(usuario, password) {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"Error": "Usuario o contraseña incorrectos"})
		return
	}

	sesion := sessions.Default(c)
	sesion.Set(claveSesionUsuario, usuario)
	if err := sesion.Save(); err != nil {
		log.Printf("Error al guardar la sesión: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}

func logoutHandler(c *gin.Context) {
	sesion := sessions.Default(c)
	sesion.Clear()
	if err := sesion.Save(); err != nil {
		log.Printf("Error al cerrar la sesión: %v", err)
	}
	c.Redirect(http.StatusFound, "/login")
}

// requireLogin protege las rutas del padrón: sin sesión, a /login.
func requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sesion := sessions.Default(c)
		if sesion.Get(claveSesionUsuario) == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// setFlash guarda un mensaje de una sola lectura en la sesión.
func setFlash(c *gin.Context, categoria, mensaje string) {
	sesion := sessions.Default(c)
	sesion.Set(claveFlashCategoria, categoria)
	sesion.Set(claveFlashMensaje, mensaje)
	if err := sesion.Save(); err != nil {
		log.Printf("Error al guardar el mensaje flash: %v", err)
	}
}

// takeFlash lee y borra el mensaje flash pendiente, si lo hay.
func takeFlash(c *gin.Context) (categoria, mensaje string) {
	sesion := sessions.Default(c)
	if v, ok := sesion.Get(claveFlashMensaje).(string); ok {
		mensaje = v
	}
	if v, ok := sesion.Get(claveFlashCategoria).(string); ok {
		categoria = v
	}
	if mensaje != "" {
		sesion.Delete(claveFlashMensaje)
		sesion.Delete(claveFlashCategoria)
		if err := sesion.Save(); err != nil {
			log.Printf("Error al limpiar el mensaje flash: %v", err)
		}
	}
	return categoria, mensaje
}
