// Package render turns a presentation file into per-page raster images.
//
// Rendering is a two-hop bridge: an external converter (LibreOffice) is
// located by probing a candidate list, invoked headlessly to produce a
// page-accurate PDF, and the PDF is rasterized in-process with MuPDF at a
// fixed resolution. Each hop has its own failure mode so the caller can
// degrade to text-only output instead of failing the job.
package render

import (
	"errors"
	"fmt"
)

// ErrToolNotFound reports that no candidate converter answered the
// liveness probe. The screenshot stage cannot run.
var ErrToolNotFound = errors.New("no presentation converter found")

// ConversionError reports a failed or timed-out converter invocation.
type ConversionError struct {
	Tool    string
	Output  string // combined stdout/stderr of the tool
	Timeout bool
	Err     error
}

func (e *ConversionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: conversion timed out", e.Tool)
	}
	return fmt.Sprintf("%s: conversion failed: %v", e.Tool, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// RasterError reports a failure turning the PDF into images.
type RasterError struct {
	Path string
	Err  error
}

func (e *RasterError) Error() string {
	return fmt.Sprintf("rasterize %s: %v", e.Path, e.Err)
}

func (e *RasterError) Unwrap() error { return e.Err }
