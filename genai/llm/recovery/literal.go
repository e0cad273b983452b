package recovery

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// literal parses python literal syntax: strings in either quote style (with
// optional r/u/b prefixes and implicit concatenation), numbers, True, False,
// None, lists, tuples, sets and dicts. Numbers decode to float64 and dict keys
// to strings so results compare equal to their encoding/json counterparts.
type literal struct {
	src string
	pos int
}

func parseLiteral(src string) (interface{}, error) {
	p := &literal{src: src}
	value, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected trailing input")
	}
	return value, nil
}

func (p *literal) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("literal: %s at offset %d", fmt.Sprintf(format, args...), p.pos)
}

// skip consumes whitespace and comments.
func (p *literal) skip() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			p.pos++
		case c == '\\' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '\n':
			p.pos += 2
		case c == '#':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *literal) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literal) value() (interface{}, error) {
	p.skip()
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}
	c := p.peek()
	switch {
	case c == '[':
		p.pos++
		return p.sequence(']')
	case c == '(':
		p.pos++
		return p.tuple()
	case c == '{':
		p.pos++
		return p.dict()
	case c == '"' || c == '\'' || p.prefixedString():
		return p.stringValue()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	}
	switch word := p.identifier(); word {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	case "":
		return nil, p.errorf("unexpected character %q", c)
	default:
		return nil, p.errorf("unsupported name %q", word)
	}
}

func (p *literal) identifier() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (p.pos > start && c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

// sequence parses items up to closing; a trailing comma is allowed.
func (p *literal) sequence(closing byte) ([]interface{}, error) {
	ret := make([]interface{}, 0)
	for {
		p.skip()
		if p.peek() == closing {
			p.pos++
			return ret, nil
		}
		item, err := p.value()
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
		p.skip()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return ret, nil
		default:
			return nil, p.errorf("expected ',' or %q", closing)
		}
	}
}

// tuple distinguishes a parenthesised value from a tuple by the presence of a comma.
func (p *literal) tuple() (interface{}, error) {
	p.skip()
	if p.peek() == ')' {
		p.pos++
		return []interface{}{}, nil
	}
	first, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skip()
	switch p.peek() {
	case ')':
		p.pos++
		return first, nil
	case ',':
		p.pos++
		rest, err := p.sequence(')')
		if err != nil {
			return nil, err
		}
		return append([]interface{}{first}, rest...), nil
	}
	return nil, p.errorf("expected ',' or ')'")
}

// dict parses a dict or, when the first item has no ':', a set.
func (p *literal) dict() (interface{}, error) {
	ret := map[string]interface{}{}
	p.skip()
	if p.peek() == '}' {
		p.pos++
		return ret, nil
	}
	first, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.peek() != ':' {
		if p.peek() == '}' {
			p.pos++
			return []interface{}{first}, nil
		}
		if p.peek() != ',' {
			return nil, p.errorf("expected ':' or ','")
		}
		p.pos++
		rest, err := p.sequence('}')
		if err != nil {
			return nil, err
		}
		return append([]interface{}{first}, rest...), nil
	}
	key := first
	for {
		p.skip()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':'")
		}
		p.pos++
		item, err := p.value()
		if err != nil {
			return nil, err
		}
		ret[keyString(key)] = item
		p.skip()
		switch p.peek() {
		case '}':
			p.pos++
			return ret, nil
		case ',':
			p.pos++
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
		p.skip()
		if p.peek() == '}' {
			p.pos++
			return ret, nil
		}
		if key, err = p.value(); err != nil {
			return nil, err
		}
	}
}

func keyString(key interface{}) string {
	switch actual := key.(type) {
	case string:
		return actual
	case nil:
		return "None"
	case bool:
		if actual {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(actual, 'f', -1, 64)
	}
	return fmt.Sprint(key)
}

func (p *literal) number() (interface{}, error) {
	start := p.pos
	sign := 1.0
	for p.peek() == '-' || p.peek() == '+' {
		if p.peek() == '-' {
			sign = -sign
		}
		p.pos++
		p.skip()
	}
	digitsStart := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '_' || c == 'x' || c == 'X' || c == 'o' || c == 'O' ||
			(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			p.pos++
			continue
		}
		if (c == '+' || c == '-') && p.pos > digitsStart {
			if prev := p.src[p.pos-1]; prev == 'e' || prev == 'E' {
				p.pos++
				continue
			}
		}
		break
	}
	token := strings.ReplaceAll(p.src[digitsStart:p.pos], "_", "")
	if token == "" {
		p.pos = start
		return nil, p.errorf("invalid number")
	}
	lower := strings.ToLower(token)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		v, err := strconv.ParseInt(lower, 0, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", token)
		}
		return sign * float64(v), nil
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil, p.errorf("invalid number %q", token)
	}
	return sign * v, nil
}

func (p *literal) prefixedString() bool {
	for i := p.pos; i < len(p.src) && i < p.pos+3; i++ {
		switch c := p.src[i]; c {
		case 'r', 'R', 'u', 'U', 'b', 'B':
			continue
		case '"', '\'':
			return i > p.pos
		default:
			return false
		}
	}
	return false
}

// stringValue parses one or more adjacent string literals and concatenates them.
func (p *literal) stringValue() (interface{}, error) {
	builder := strings.Builder{}
	for {
		p.skip()
		c := p.peek()
		if c != '"' && c != '\'' && !p.prefixedString() {
			return builder.String(), nil
		}
		if err := p.stringLiteral(&builder); err != nil {
			return nil, err
		}
	}
}

func (p *literal) stringLiteral(builder *strings.Builder) error {
	raw := false
	for {
		c := p.peek()
		if c == 'r' || c == 'R' {
			raw = true
		} else if c != 'u' && c != 'U' && c != 'b' && c != 'B' {
			break
		}
		p.pos++
	}
	quote := p.src[p.pos]
	delimiter := string(quote)
	if strings.HasPrefix(p.src[p.pos:], strings.Repeat(delimiter, 3)) {
		delimiter = strings.Repeat(delimiter, 3)
	}
	p.pos += len(delimiter)
	for {
		if p.pos >= len(p.src) {
			return p.errorf("unterminated string")
		}
		if strings.HasPrefix(p.src[p.pos:], delimiter) {
			p.pos += len(delimiter)
			return nil
		}
		c := p.src[p.pos]
		if c == '\n' && len(delimiter) == 1 {
			return p.errorf("newline in string")
		}
		if c != '\\' {
			builder.WriteByte(c)
			p.pos++
			continue
		}
		if p.pos+1 >= len(p.src) {
			return p.errorf("unterminated escape")
		}
		if raw {
			builder.WriteByte(c)
			builder.WriteByte(p.src[p.pos+1])
			p.pos += 2
			continue
		}
		if err := p.escape(builder); err != nil {
			return err
		}
	}
}

func (p *literal) escape(builder *strings.Builder) error {
	next := p.src[p.pos+1]
	p.pos += 2
	switch next {
	case '\n':
	case '\\', '\'', '"':
		builder.WriteByte(next)
	case 'n':
		builder.WriteByte('\n')
	case 't':
		builder.WriteByte('\t')
	case 'r':
		builder.WriteByte('\r')
	case 'b':
		builder.WriteByte('\b')
	case 'f':
		builder.WriteByte('\f')
	case 'v':
		builder.WriteByte('\v')
	case 'a':
		builder.WriteByte('\a')
	case '0':
		builder.WriteByte(0)
	case 'x', 'u', 'U':
		size := map[byte]int{'x': 2, 'u': 4, 'U': 8}[next]
		if p.pos+size > len(p.src) {
			return p.errorf("truncated \\%c escape", next)
		}
		code, err := strconv.ParseUint(p.src[p.pos:p.pos+size], 16, 32)
		if err != nil || !utf8.ValidRune(rune(code)) {
			return p.errorf("invalid \\%c escape", next)
		}
		builder.WriteRune(rune(code))
		p.pos += size
	default:
		builder.WriteByte('\\')
		builder.WriteByte(next)
	}
	return nil
}
