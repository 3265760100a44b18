package repl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/expr-lang/expr/builtin"
)

// functionCall describes the call whose argument list holds the cursor.
type functionCall struct {
	name     string
	argIndex int
	inCall   bool
}

// detectFunctionCall finds the innermost call whose argument list contains
// the cursor, and the index of the argument being typed. Parentheses and
// commas inside string literals are ignored.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	// Scan forward, keeping a stack of open parentheses and the number of
	// top-level commas seen inside each.
	type frame struct{ open, commas int }

	var (
		stack []frame
		quote rune
	)

	for i, r := range input[:cursor] {
		switch {
		case quote != 0:
			if r == quote && !escaped(input, i) {
				quote = 0
			}

		case r == '"' || r == '\'' || r == '`':
			quote = r

		case r == '(' || r == '[' || r == '{':
			stack = append(stack, frame{open: i})

		case r == ')' || r == ']' || r == '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case r == ',' && len(stack) > 0:
			stack[len(stack)-1].commas++
		}
	}

	if len(stack) == 0 || input[stack[len(stack)-1].open] != '(' {
		return functionCall{}
	}

	top := stack[len(stack)-1]

	name := calleeName(input[:top.open])
	if name == "" {
		return functionCall{}
	}

	return functionCall{name: name, argIndex: top.commas, inCall: true}
}

// escaped reports whether the byte at i is preceded by an odd number of
// backslashes.
func escaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}

	return n%2 == 1
}

// calleeName returns the identifier immediately before an opening
// parenthesis, or "" when the parenthesis only groups.
func calleeName(prefix string) string {
	prefix = strings.TrimRightFunc(prefix, unicode.IsSpace)
	end := len(prefix)
	start := end

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:start])
		if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}

		start -= size
	}

	name := prefix[start:end]
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return ""
	}

	// A member call such as "obj.f(" is not a function call.
	if start > 0 && prefix[start-1] == '.' {
		return ""
	}

	return name
}

// getSignature returns the signature of the named function and its
// parameter names.
func (s *Session) getSignature(name string) (signature string, params []string) {
	sig, ok := s.Signature(name)
	if !ok {
		return "", nil
	}

	return sig, signatureParams(sig)
}

// signatureParams extracts the parameter list of "f(a, b?, ...)".
func signatureParams(sig string) []string {
	open, end := strings.IndexByte(sig, '('), strings.LastIndexByte(sig, ')')
	if open < 0 || end <= open {
		return nil
	}

	inner := strings.TrimSpace(sig[open+1 : end])
	if inner == "" {
		return nil
	}

	params := strings.Split(inner, ",")
	for i := range params {
		params[i] = strings.TrimSpace(params[i])
	}

	return params
}

// reservedHint explains a name the grammar parses as one of its own
// built-in calls but that nothing in the session binds.
func (s *Session) reservedHint(name string) (string, bool) {
	if _, ok := builtin.Index[name]; !ok || s.IsFunction(name) {
		return "", false
	}

	return name + " is reserved by the grammar and has no binding", true
}

func isVariadic(param string) bool {
	return strings.HasPrefix(param, "...") || strings.HasSuffix(param, "...")
}

// renderSignatureHint renders the signature with the parameter at
// argIndex highlighted. A variadic parameter stays highlighted for every
// argument from its position on.
func (m model) renderSignatureHint(signature string, params []string, argIndex int) string {
	if signature == "" {
		return ""
	}

	open := strings.IndexByte(signature, '(')
	if open < 0 {
		return m.style.signature.Render(signature)
	}

	var b strings.Builder

	b.WriteString(m.style.signatureName.Render(signature[:open]))
	b.WriteString(m.style.signature.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(m.style.signature.Render(", "))
		}

		if i == argIndex || (isVariadic(param) && argIndex >= i) {
			b.WriteString(m.style.currentParam.Render(param))
		} else {
			b.WriteString(m.style.signature.Render(param))
		}
	}

	b.WriteString(m.style.signature.Render(")"))

	return b.String()
}
