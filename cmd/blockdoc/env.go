package main

import (
	"io"
	"os"
	"time"

	"github.com/alnah/go-blockdoc"
)

// ConverterFactory builds the renderer backend for a conversion run.
type ConverterFactory func(name string, opts ...blockdoc.ConverterOption) (blockdoc.HTMLConverter, error)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now          func() time.Time
	Stdout       io.Writer
	Stderr       io.Writer
	NewConverter ConverterFactory
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:          time.Now,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		NewConverter: blockdoc.NewConverter,
	}
}
