package ansi

import (
	"bytes"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// PrepareForOutput processes raw art data for a terminal. The SAUCE
// record is stripped, CP437 is decoded to UTF-8 when the terminal wants
// it, and line endings are normalized to CRLF.
func PrepareForOutput(data []byte, utf8 bool) []byte {
	cleaned := StripSauce(data)

	var s string
	if utf8 {
		s = DecodeCP437(cleaned)
	} else {
		// Legacy clients (SyncTERM and kin) want the raw bytes.
		s = string(cleaned)
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\r\n")
	return []byte(s)
}

// Print writes prepared art to w and appends a reset so the screen state
// does not leak into whatever the door paints next.
func Print(w io.Writer, data []byte, utf8 bool) (int, error) {
	prepared := PrepareForOutput(data, utf8)
	prepared = append(prepared, []byte(ResetSeq)...)
	return w.Write(prepared)
}

// RenderTemplate executes data as a Go template with the sprig function
// map, so art files can greet the user by alias or show the time left.
func RenderTemplate(data []byte, vars map[string]any) ([]byte, error) {
	tmpl, err := template.New("art").Funcs(sprig.FuncMap()).Parse(string(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderFile loads an art file, runs it through the template engine when
// vars are supplied, and prints it.
func RenderFile(w io.Writer, path string, utf8 bool, vars map[string]any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if vars != nil {
		if data, err = RenderTemplate(data, vars); err != nil {
			return err
		}
	}
	_, err = Print(w, data, utf8)
	return err
}
