package ast

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"objrw/internal/source"
)

// Format of a serialized unit document.
type Format uint8

const (
	FormatAuto Format = iota
	FormatMsgpack
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatMsgpack:
		return "msgpack"
	case FormatJSON:
		return "json"
	}
	return "auto"
}

// ParseFormat accepts "auto", "msgpack" and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "msgpack", "astpack", "mp":
		return FormatMsgpack, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatAuto, fmt.Errorf("unknown unit format %q", s)
}

// FormatFromPath picks the format by extension: ".astpack" is msgpack,
// ".json" is JSON.
func FormatFromPath(path string) Format {
	if strings.HasSuffix(path, ".json") {
		return FormatJSON
	}
	return FormatMsgpack
}

// ErrSchema is returned for documents written with another schema version.
var ErrSchema = errors.New("unit document schema mismatch")

// document is the wire form of a Unit.
type document struct {
	Schema      uint16        `msgpack:"schema" json:"schema"`
	Path        string        `msgpack:"path" json:"path"`
	Source      string        `msgpack:"source,omitempty" json:"source,omitempty"`
	HasSource   bool          `msgpack:"hasSource,omitempty" json:"hasSource,omitempty"`
	Lang        Lang          `msgpack:"lang" json:"lang"`
	PriorErrors int           `msgpack:"priorErrors,omitempty" json:"priorErrors,omitempty"`
	Macros      []source.Span `msgpack:"macros,omitempty" json:"macros,omitempty"`
	Includes    []source.Span `msgpack:"includes,omitempty" json:"includes,omitempty"`
	TopLevel    []DeclID      `msgpack:"top" json:"top"`
	Types       []Type        `msgpack:"types" json:"types"`
	Decls       []Decl        `msgpack:"decls" json:"decls"`
	Stmts       []Stmt        `msgpack:"stmts" json:"stmts"`
	Exprs       []Expr        `msgpack:"exprs" json:"exprs"`
}

func toDocument(u *Unit) *document {
	return &document{
		Schema:      SchemaVersion,
		Path:        u.Path,
		Source:      string(u.Source),
		HasSource:   u.Source != nil,
		Lang:        u.Lang,
		PriorErrors: u.PriorErrors,
		Macros:      u.Macros,
		Includes:    u.Includes,
		TopLevel:    u.TopLevel,
		Types:       u.Types.Slice(),
		Decls:       u.Decls.Slice(),
		Stmts:       u.Stmts.Slice(),
		Exprs:       u.Exprs.Slice(),
	}
}

func (d *document) unit() *Unit {
	u := &Unit{
		Path:        d.Path,
		Lang:        d.Lang,
		PriorErrors: d.PriorErrors,
		Macros:      d.Macros,
		Includes:    d.Includes,
		TopLevel:    d.TopLevel,
		Types:       arenaOf(d.Types),
		Decls:       arenaOf(d.Decls),
		Stmts:       arenaOf(d.Stmts),
		Exprs:       arenaOf(d.Exprs),
	}
	if d.HasSource {
		u.Source = []byte(d.Source)
	}
	return u
}

// Encode writes u in the given format (auto means msgpack).
func Encode(w io.Writer, u *Unit, f Format) error {
	doc := toDocument(u)
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		enc := msgpack.NewEncoder(w)
		enc.UseCompactInts(true)
		return enc.Encode(doc)
	}
}

// Decode reads a unit document. FormatAuto sniffs the first byte: '{' is JSON.
func Decode(r io.Reader, f Format) (*Unit, error) {
	br := bufio.NewReader(r)
	if f == FormatAuto {
		f = FormatMsgpack
		if b, err := br.Peek(1); err == nil && b[0] == '{' {
			f = FormatJSON
		}
	}
	var doc document
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(br).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json unit: %w", err)
		}
	default:
		if err := msgpack.NewDecoder(br).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode msgpack unit: %w", err)
		}
	}
	if doc.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchema, doc.Schema, SchemaVersion)
	}
	return doc.unit(), nil
}

// DecodeFile reads a unit document from path. FormatAuto uses the extension.
func DecodeFile(path string, f Format) (*Unit, error) {
	if f == FormatAuto {
		f = FormatFromPath(path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	u, err := Decode(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// EncodeFile writes u to path, format picked by extension when auto.
func EncodeFile(path string, u *Unit, f Format) error {
	if f == FormatAuto {
		f = FormatFromPath(path)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := Encode(w, u, f); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
