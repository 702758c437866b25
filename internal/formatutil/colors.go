// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package formatutil manipulates string colors and other formatting operations.
package formatutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Escape sequences of the styles
const (
	bold    = "\033[1m%s\033[0m"
	faint   = "\033[2m%s\033[0m"
	red     = "\033[1;31m%s\033[0m"
	green   = "\033[1;32m%s\033[0m"
	yellow  = "\033[1;33m%s\033[0m"
	magenta = "\033[1;35m%s\033[0m"
	cyan    = "\033[1;36m%s\033[0m"
)

// A Palette colors strings when it is enabled, and returns them unchanged otherwise.
type Palette struct {
	enabled bool
}

// NewPalette returns a palette for output written to w. Colors are enabled only when color is true and w is a
// terminal.
func NewPalette(w io.Writer, color bool) Palette {
	f, ok := w.(*os.File)
	return Palette{enabled: color && ok && term.IsTerminal(int(f.Fd()))}
}

// ForcedPalette returns a palette that colors strings iff enabled, regardless of the output
func ForcedPalette(enabled bool) Palette {
	return Palette{enabled: enabled}
}

// Enabled returns true if the palette colors strings
func (p Palette) Enabled() bool { return p.enabled }

func (p Palette) color(colorString string, args ...any) string {
	if p.enabled {
		return fmt.Sprintf(colorString, fmt.Sprint(args...))
	}
	return fmt.Sprint(args...)
}

// Bold formats in bold, used for headers
func (p Palette) Bold(args ...any) string { return p.color(bold, args...) }

// Faint formats in faint, used for empty results
func (p Palette) Faint(args ...any) string { return p.color(faint, args...) }

// Red formats in red, used for errors
func (p Palette) Red(args ...any) string { return p.color(red, args...) }

// Green formats in green, used for locations
func (p Palette) Green(args ...any) string { return p.color(green, args...) }

// Yellow formats in yellow, used for warnings
func (p Palette) Yellow(args ...any) string { return p.color(yellow, args...) }

// Magenta formats in magenta, used for functions
func (p Palette) Magenta(args ...any) string { return p.color(magenta, args...) }

// Cyan formats in cyan, used for variables
func (p Palette) Cyan(args ...any) string { return p.color(cyan, args...) }

// Sanitize is a simple sanitizer that removes all escape sequences
func Sanitize(s string) string {
	r := fmt.Sprintf("%q", s)
	if len(r) >= 2 {
		return r[1 : len(r)-1]
	}
	return r
}

// SanitizeRepr is a simple sanitizer that removes all escape sequences from the string representation of an object
func SanitizeRepr(s fmt.Stringer) string {
	return Sanitize(s.String())
}

// Join formats each element with f and joins them with ", " between braces, e.g. "{a, b}"
func Join[T any](elems []T, f func(T) string) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = f(e)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
