package debugfmt

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/schema"
)

type writer struct {
	bw    *bufio.Writer
	depth int
}

func newWriter(w io.Writer) *writer {
	return &writer{bw: bufio.NewWriter(w)}
}

func (w *writer) line(parts ...string) {
	for range w.depth {
		_ = w.bw.WriteByte('\t')
	}
	_, _ = w.bw.WriteString(strings.Join(parts, " "))
	_ = w.bw.WriteByte('\n')
}

func (w *writer) open(parts ...string) {
	w.line(append(parts, "{")...)
	w.depth++
}

func (w *writer) close() {
	w.depth--
	w.line("}")
}

// flush reports the first write error; bufio keeps it sticky.
func (w *writer) flush() error {
	return w.bw.Flush()
}

var q = strconv.Quote

func (w *writer) structure(s *schema.Structure) {
	w.open("structure", q(s.Name()))
	for _, m := range s.Members() {
		w.line("member", m.Type().String(), strconv.Itoa(m.Length()), q(m.Name()))
	}
	w.close()
}

func (w *writer) stream(s *assoc.Stream) {
	st := s.Structure()

	w.open("stream", q(s.Name()))
	w.line("structure", q(st.Name()))
	w.line("index", q(s.IndexType()))
	if s.UseDefaults() {
		w.line("defaults", "true")
	}
	if first, last, ok := s.ElementRange(); ok {
		w.line("range", q(first.AsString()), q(last.AsString()))
	}
	if s.IsDense() {
		w.line("dense")
	}

	for idx, h := range s.All() {
		w.open("element", q(idx.AsString()))
		for i, m := range st.Members() {
			_ = h.SetPositionByMemberIndex(i)
			parts := make([]string, 0, m.Length()+2)
			parts = append(parts, "set", q(m.Name()))
			for dim := range m.Length() {
				parts = append(parts, q(h.Str(dim)))
			}
			w.line(parts...)
		}
		w.close()
	}
	w.close()
}

func (w *writer) channel(c *assoc.Channel) {
	w.open("channel", q(c.Name()))
	for _, s := range c.All() {
		w.stream(s)
	}
	w.close()
}

func (w *writer) associations(a *assoc.Associations) {
	w.open("associations")
	for _, c := range a.All() {
		w.channel(c)
	}
	w.close()
}
