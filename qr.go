package main

import (
	"encoding/base64"
	"strings"

	"github.com/skip2/go-qrcode"
)

const tamanoQR = 300

// generarCodigoQR codifica el número de control como imagen PNG.
// Recorta espacios antes de codificar; cualquier texto no vacío es válido.
func generarCodigoQR(contenido string) ([]byte, error) {
	contenido = strings.TrimSpace(contenido)
	if contenido == "" {
		return nil, ErrNumeroControlVacio
	}
	return qrcode.Encode(contenido, qrcode.Medium, tamanoQR)
}

// codigoQRBase64 devuelve el PNG en base64 para incrustarlo en un <img>.
func codigoQRBase64(contenido string) (string, error) {
	png, err := generarCodigoQR(contenido)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
