package scw

import (
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/mogaika/transfer_skin_cluster/skin"
)

const (
	TOKEN_KEYWORD = iota
	TOKEN_NUMBER
	TOKEN_STRING
	TOKEN_NEWLINE
)

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_]*`), getToken(TOKEN_KEYWORD))
	lexer.Add([]byte(`[\+\-]?[0-9]+(\.[0-9]+)?([eE][\+\-]?[0-9]+)?`), getToken(TOKEN_NUMBER))
	lexer.Add([]byte(`"(\\[^\r\n]|[^"\\\r\n])*"`), getToken(TOKEN_STRING))
	lexer.Add([]byte(`(\r|\n)+`), getToken(TOKEN_NEWLINE))
	lexer.Add([]byte(`#[^\r\n]*`), skip)
	lexer.Add([]byte(`( |\t)+`), skip)
	if err := lexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}

// record is one non-empty line of tokens
type record struct {
	line   int
	tokens []*lexmachine.Token
}

func tokenize(text []byte) ([]record, error) {
	scanner, err := lexer.Scanner(text)
	if err != nil {
		return nil, skin.Corruptf(0, "failed to create scanner: %v", err)
	}

	records := make([]record, 0, 64)
	var current record
	for itok, err, eos := scanner.Next(); !eos; itok, err, eos = scanner.Next() {
		if err != nil {
			if ui, ok := err.(*machines.UnconsumedInput); ok {
				return nil, skin.Corruptf(ui.StartLine, "%v", ui)
			}
			return nil, skin.Corruptf(0, "failed to parse token: %v", err)
		}
		tok := itok.(*lexmachine.Token)

		if tok.Type == TOKEN_NEWLINE {
			if len(current.tokens) != 0 {
				records = append(records, current)
			}
			current = record{}
			continue
		}
		if len(current.tokens) == 0 {
			current.line = tok.StartLine
		}
		current.tokens = append(current.tokens, tok)
	}
	if len(current.tokens) != 0 {
		records = append(records, current)
	}
	return records, nil
}
