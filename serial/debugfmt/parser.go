package debugfmt

import (
	"fmt"
	"io"
	"strconv"
	"text/scanner"

	"github.com/arloliu/mdata/assoc"
	"github.com/arloliu/mdata/errs"
	"github.com/arloliu/mdata/index"
	"github.com/arloliu/mdata/schema"
	"github.com/arloliu/mdata/serial"
)

type parser struct {
	s   scanner.Scanner
	tok rune
	err error
}

func newParser(r io.Reader) *parser {
	p := &parser{}
	p.s.Init(r)
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.failf("%s", msg)
	}
	p.next()

	return p
}

func (p *parser) next() {
	p.tok = p.s.Scan()
}

func (p *parser) failf(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s: %s", errs.ErrBadSyntax, p.s.Position, fmt.Sprintf(format, args...))
	}
}

func (p *parser) setErr(err error) {
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", p.s.Position, err)
	}
}

// finish requires the input to be consumed.
func (p *parser) finish() error {
	if p.err == nil && p.tok != scanner.EOF {
		p.err = fmt.Errorf("%w: %s: %q", errs.ErrExcessData, p.s.Position, p.s.TokenText())
	}

	return p.err
}

func (p *parser) isKeyword(word string) bool {
	return p.err == nil && p.tok == scanner.Ident && p.s.TokenText() == word
}

func (p *parser) keyword(word string) {
	if !p.isKeyword(word) {
		p.failf("expected %q, found %q", word, p.s.TokenText())
		return
	}
	p.next()
}

func (p *parser) expect(r rune) {
	if p.err != nil {
		return
	}
	if p.tok != r {
		p.failf("expected %q, found %q", string(r), p.s.TokenText())
		return
	}
	p.next()
}

func (p *parser) ident() string {
	if p.err != nil {
		return ""
	}
	if p.tok != scanner.Ident {
		p.failf("expected identifier, found %q", p.s.TokenText())
		return ""
	}
	v := p.s.TokenText()
	p.next()

	return v
}

func (p *parser) integer() int {
	if p.err != nil {
		return 0
	}
	if p.tok != scanner.Int {
		p.failf("expected integer, found %q", p.s.TokenText())
		return 0
	}
	v, err := strconv.Atoi(p.s.TokenText())
	if err != nil {
		p.failf("%v", err)
	}
	p.next()

	return v
}

func (p *parser) str() string {
	if p.err != nil {
		return ""
	}
	if p.tok != scanner.String {
		p.failf("expected string, found %q", p.s.TokenText())
		return ""
	}
	v, err := strconv.Unquote(p.s.TokenText())
	if err != nil {
		p.failf("%v", err)
	}
	p.next()

	return v
}

func (p *parser) boolean() bool {
	v := p.ident()
	switch v {
	case "true":
		return true
	case "false", "":
		return false
	default:
		p.failf("expected true or false, found %q", v)
		return false
	}
}

func (p *parser) index(env serial.Env, typeName string) index.Index {
	v := p.str()
	if p.err != nil {
		return index.Index{}
	}
	idx, err := env.Index(typeName, v)
	p.setErr(err)

	return idx
}

func (p *parser) structure() *schema.Structure {
	p.keyword("structure")
	s := schema.NewStructure(p.str())
	p.expect('{')
	for p.isKeyword("member") {
		p.next()
		typeName := p.ident()
		length := p.integer()
		name := p.str()
		if p.err != nil {
			break
		}
		dt, err := schema.ParseDataType(typeName)
		p.setErr(err)
		if p.err == nil {
			p.setErr(s.AddMember(dt, length, name))
		}
	}
	p.expect('}')

	return s
}

func (p *parser) element(s *assoc.Stream, env serial.Env) {
	idx := p.index(env, s.IndexType())
	p.expect('{')
	h := schema.NewHandle(s.Structure())
	for p.isKeyword("set") {
		p.next()
		p.setErr(h.SetPositionByMemberName(p.str()))
		for dim := 0; p.err == nil && p.tok == scanner.String; dim++ {
			v := p.str()
			if dim >= h.DataLength() {
				p.setErr(fmt.Errorf("%w: member %q holds %d values", errs.ErrOutOfRange, h.Member().Name(), h.DataLength()))
				break
			}
			p.setErr(h.FromStr(v, dim))
		}
	}
	p.expect('}')
	if p.err == nil {
		p.setErr(s.SetElement(idx, h))
	}
}

func (p *parser) stream(env serial.Env) *assoc.Stream {
	p.keyword("stream")
	name := p.str()
	p.expect('{')
	p.keyword("structure")
	structName := p.str()
	p.keyword("index")
	typeName := p.str()
	if p.err != nil {
		return nil
	}
	st, err := env.Structure(structName)
	if err != nil {
		p.setErr(err)
		return nil
	}

	s := assoc.NewStream(st, name)
	p.setErr(s.SetIndexType(typeName))
	if p.isKeyword("defaults") {
		p.next()
		s.SetUseDefaults(p.boolean())
	}
	if p.isKeyword("range") {
		p.next()
		first := p.index(env, typeName)
		last := p.index(env, typeName)
		if p.err == nil {
			p.setErr(s.SetElementRange(first, last))
		}
	}
	if p.isKeyword("dense") {
		p.next()
		p.setErr(s.UseDenseStorage(true))
	}
	for p.isKeyword("element") {
		p.next()
		p.element(s, env)
	}
	p.expect('}')

	return s
}

func (p *parser) channel(env serial.Env) *assoc.Channel {
	p.keyword("channel")
	c := assoc.NewChannel(p.str())
	p.expect('{')
	for p.isKeyword("stream") {
		s := p.stream(env)
		if p.err != nil {
			break
		}
		if c.FindDataStream(s.Name()) != nil {
			p.setErr(fmt.Errorf("%w: %q", errs.ErrDuplicateStream, s.Name()))
			break
		}
		c.SetDataStream(s)
		s.Release()
	}
	p.expect('}')

	return c
}

func (p *parser) associations(env serial.Env) *assoc.Associations {
	a := assoc.NewAssociations()
	p.keyword("associations")
	p.expect('{')
	for p.isKeyword("channel") {
		c := p.channel(env)
		if p.err != nil {
			break
		}
		if a.FindChannel(c.Name()) != nil {
			p.setErr(fmt.Errorf("%w: %q", errs.ErrDuplicateChannel, c.Name()))
			break
		}
		a.SetChannel(c)
		c.Release()
	}
	p.expect('}')

	return a
}
