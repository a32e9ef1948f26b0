//go:build tesseract

package main

import (
	"github.com/njchilds90/formsolve/internal/recognize"
	"github.com/njchilds90/formsolve/internal/recognize/tesseract"
)

func newTesseract() (recognize.Recognizer, error) {
	return tesseract.New(), nil
}
