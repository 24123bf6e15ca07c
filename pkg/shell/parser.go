package shell

import (
	"errors"
	"io"
	"strings"
	"unicode"
)

type Parser interface {
	Parse(line string) ([]string, error)
	ParseTokens(line string) ([]Token, error)
}

var (
	ErrUnclosedQuote = errors.New("unclosed quote")
)

// Token is one word of a command line. Quoted is set when any part of the
// word came from inside quotes, so it can never act as an operator.
type Token struct {
	Text   string
	Quoted bool
}

type DefaultParser struct {
	newReader  func(string) io.RuneReader
	newBuilder func() *strings.Builder
}

func NewDefaultParser() *DefaultParser {
	d := &DefaultParser{
		newReader: func(s string) io.RuneReader {
			return strings.NewReader(s)
		},
		newBuilder: func() *strings.Builder {
			return &strings.Builder{}
		},
	}

	return d
}

type parseState int

const (
	stateOutside parseState = iota
	stateSingleQuote
	stateDoubleQuote
)

type tokenBuffer struct {
	builder *strings.Builder
	quoted  bool
}

func newTokenBuffer(builder *strings.Builder) *tokenBuffer {
	tokenBuffer := &tokenBuffer{
		builder: builder,
	}

	return tokenBuffer
}

func (tokenBuffer *tokenBuffer) isEmpty() bool {
	return tokenBuffer.builder.Len() == 0
}

func (tokenBuffer *tokenBuffer) appendRune(r rune) {
	tokenBuffer.builder.WriteRune(r)
}

func (tokenBuffer *tokenBuffer) openQuote() {
	tokenBuffer.quoted = true
}

func (tokenBuffer *tokenBuffer) flushIfNotEmpty(tokens []Token) []Token {
	if !tokenBuffer.isEmpty() {
		tokens = append(tokens, Token{Text: tokenBuffer.builder.String(), Quoted: tokenBuffer.quoted})
		tokenBuffer.builder.Reset()
	}
	tokenBuffer.quoted = false

	return tokens

}

func handleStateOutside(ch rune, currState parseState, tokenBuffer *tokenBuffer, tokens []Token) (parseState, []Token) {

	if unicode.IsSpace(ch) {

		tokens = tokenBuffer.flushIfNotEmpty(tokens)

	} else if ch == '\'' {
		tokenBuffer.openQuote()
		currState = stateSingleQuote

	} else if ch == '"' {
		tokenBuffer.openQuote()
		currState = stateDoubleQuote
	} else {
		tokenBuffer.appendRune(ch)
	}

	return currState, tokens

}

func handleStateQuoted(ch rune, closing rune, currState parseState, tokenBuffer *tokenBuffer, tokens []Token) (parseState, []Token) {

	if ch == closing {
		currState = stateOutside

	} else {
		tokenBuffer.appendRune(ch)
	}

	return currState, tokens

}

func (p *DefaultParser) ParseTokens(line string) ([]Token, error) {
	runeReader := p.newReader(line)
	tokenBuffer := newTokenBuffer(p.newBuilder())

	tokens := []Token{}

	currState := stateOutside

	for {
		ch, _, err := runeReader.ReadRune()

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}

		switch currState {
		case stateOutside:
			currState, tokens = handleStateOutside(ch, currState, tokenBuffer, tokens)

		case stateSingleQuote:
			currState, tokens = handleStateQuoted(ch, '\'', currState, tokenBuffer, tokens)

		case stateDoubleQuote:
			currState, tokens = handleStateQuoted(ch, '"', currState, tokenBuffer, tokens)
		}

	}

	if currState == stateSingleQuote || currState == stateDoubleQuote {
		return nil, &QuoteError{Quote: closingQuote(currState)}
	}

	tokens = tokenBuffer.flushIfNotEmpty(tokens)

	return tokens, nil

}

func (p *DefaultParser) Parse(line string) ([]string, error) {
	tokens, err := p.ParseTokens(line)
	if err != nil {
		return nil, err
	}

	args := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		args = append(args, tok.Text)
	}

	return args, nil
}

// QuoteError reports which quote character was left open.
type QuoteError struct {
	Quote rune
}

func (e *QuoteError) Error() string {
	return ErrUnclosedQuote.Error() + ": " + string(e.Quote)
}

func (e *QuoteError) Unwrap() error {
	return ErrUnclosedQuote
}

func closingQuote(state parseState) rune {
	if state == stateSingleQuote {
		return '\''
	}
	return '"'
}

// SplitPipeline cuts a raw line into pipeline stages on unquoted '|' or the
// full-width '｜'. Quotes are left in place for the tokenizer.
func SplitPipeline(line string) []string {
	var stages []string
	var current strings.Builder
	var quote rune

	for _, ch := range line {
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
			current.WriteRune(ch)
		case ch == '\'' || ch == '"':
			quote = ch
			current.WriteRune(ch)
		case ch == '|' || ch == '｜':
			stages = append(stages, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	return append(stages, current.String())
}
