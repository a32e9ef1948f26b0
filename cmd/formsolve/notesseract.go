//go:build !tesseract

package main

import (
	"errors"

	"github.com/njchilds90/formsolve/internal/recognize"
)

func newTesseract() (recognize.Recognizer, error) {
	return nil, errors.New("built without tesseract support, rebuild with -tags tesseract")
}
