package provider

import (
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/mrlokans/symptomchecker/internal/router"
	"github.com/mrlokans/symptomchecker/internal/schema"
)

// checkExpression accepts caller SQL (a filter or an ORDER BY list) only when
// it stays a single expression: no statement separator or comment outside
// quoted text, balanced parentheses and closed quotes.
func checkExpression(clauseName, expr string) error {
	depth := 0
	for i := 0; i < len(expr); i++ {
		switch ch := expr[i]; ch {
		case '\'', '"', '`':
			end := closingQuote(expr, i+1, ch)
			if end < 0 {
				return invalidExpression(clauseName, "has an unterminated quote")
			}
			i = end
		case '[':
			end := closingQuote(expr, i+1, ']')
			if end < 0 {
				return invalidExpression(clauseName, "has an unterminated quote")
			}
			i = end
		case ';':
			return invalidExpression(clauseName, "must be a single expression")
		case '-':
			if i+1 < len(expr) && expr[i+1] == '-' {
				return invalidExpression(clauseName, "may not contain comments")
			}
		case '/':
			if i+1 < len(expr) && expr[i+1] == '*' {
				return invalidExpression(clauseName, "may not contain comments")
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return invalidExpression(clauseName, "has unbalanced parentheses")
			}
		}
	}
	if depth != 0 {
		return invalidExpression(clauseName, "has unbalanced parentheses")
	}
	return nil
}

// closingQuote returns the index of the quote closing a literal that opened
// just before from. A doubled quote inside the literal is an escape.
func closingQuote(expr string, from int, quote byte) int {
	for i := from; i < len(expr); i++ {
		if expr[i] != quote {
			continue
		}
		if quote != ']' && i+1 < len(expr) && expr[i+1] == quote {
			i++
			continue
		}
		return i
	}
	return -1
}

func invalidExpression(clauseName, reason string) error {
	return fmt.Errorf("%w: %w: %s %s", ErrValidation, ErrInvalidExpression, clauseName, reason)
}

// condition builds the WHERE expression for a match. An item match selects
// the addressed row and replaces any caller filter. ok is false when the
// whole collection is addressed.
func condition(m router.Match, filter string, filterArgs []any) (expr clause.Expr, ok bool, err error) {
	if m.IsItem() {
		return clause.Expr{SQL: schema.QuoteIdent(schema.IDColumn) + " = ?", Vars: []any{m.RowID}}, true, nil
	}
	if filter == "" {
		return clause.Expr{}, false, nil
	}
	if err := checkExpression("filter", filter); err != nil {
		return clause.Expr{}, false, err
	}
	return clause.Expr{SQL: "(" + filter + ")", Vars: filterArgs}, true, nil
}
