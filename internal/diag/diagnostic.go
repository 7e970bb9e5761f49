package diag

import (
	"objrw/internal/source"
)

type Note struct {
	Span source.Span `msgpack:"span" json:"span"`
	Msg  string      `msgpack:"msg" json:"msg"`
}

type Diagnostic struct {
	Severity Severity    `msgpack:"sev" json:"severity"`
	Code     Code        `msgpack:"code" json:"code"`
	Message  string      `msgpack:"msg" json:"message"`
	Primary  source.Span `msgpack:"primary" json:"primary"`
	Notes    []Note      `msgpack:"notes,omitempty" json:"notes,omitempty"`
}
