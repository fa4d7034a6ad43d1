package emit

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// printer accumulates generated source one line per P call, the same way
// protogen.GeneratedFile does for Go output.
type printer struct {
	buf    bytes.Buffer
	tab    string
	indent int
}

func newPrinter(tab string) *printer {
	return &printer{tab: tab}
}

// P prints a line built from v. Blank lines carry no indentation.
func (p *printer) P(v ...interface{}) {
	if len(v) > 0 {
		p.buf.WriteString(strings.Repeat(p.tab, p.indent))
	}
	for _, x := range v {
		fmt.Fprint(&p.buf, x)
	}
	p.buf.WriteByte('\n')
}

func (p *printer) In()  { p.indent++ }
func (p *printer) Out() { p.indent-- }

func (p *printer) WriteTo(w io.Writer) (int64, error) {
	return p.buf.WriteTo(w)
}
