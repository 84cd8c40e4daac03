// Package utils locates the caller of a logging call outside the macaron
// sources.
package utils

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// sourceDir module root, the parent of this package directory
var sourceDir = func() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.ToSlash(filepath.Dir(filepath.Dir(file))) + "/"
}()

// internal reports whether file belongs to macaron itself; test files are
// treated as callers
func internal(file string) bool {
	return strings.HasPrefix(file, sourceDir) && !strings.HasSuffix(file, "_test.go")
}

// CallerFrame returns the first frame outside of the macaron sources
func CallerFrame() runtime.Frame {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !internal(frame.File) {
			return frame
		}
		if !more {
			return runtime.Frame{}
		}
	}
}

// FileWithLineNum file:line of CallerFrame, empty when every frame is internal
func FileWithLineNum() string {
	frame := CallerFrame()
	if frame.PC == 0 {
		return ""
	}
	return frame.File + ":" + strconv.Itoa(frame.Line)
}
