package shell

import "strings"

// Options is the set of flags given to a command. Short flags are single
// letters, long flags are stored without their leading dashes.
type Options map[string]struct{}

// Has reports whether any of flags is set.
func (o Options) Has(flags ...string) bool {
	for _, f := range flags {
		if _, ok := o[f]; ok {
			return true
		}
	}
	return false
}

// isOption reports whether tok is a flag rather than a parameter. A lone "-"
// is a parameter.
func isOption(tok string) bool {
	return len(tok) > 1 && strings.HasPrefix(tok, "-")
}

// ParseArgs separates flag tokens from positional parameters. It knows
// nothing about which command is being parsed.
func ParseArgs(tokens []string) (Options, []string) {
	var optionTokens []string
	params := []string{}

	for _, tok := range tokens {
		if isOption(tok) {
			optionTokens = append(optionTokens, tok)
			continue
		}
		params = append(params, tok)
	}

	return ParseOptions(optionTokens), params
}

// ParseOptions expands --long into "long" and bundled -abc into a, b and c.
func ParseOptions(tokens []string) Options {
	opts := Options{}

	for _, tok := range tokens {
		if strings.HasPrefix(tok, "--") {
			if name := tok[2:]; name != "" {
				opts[name] = struct{}{}
			}
			continue
		}
		for _, ch := range strings.TrimPrefix(tok, "-") {
			opts[string(ch)] = struct{}{}
		}
	}

	return opts
}

// Values holds the arguments of flags that take one, in the order given.
type Values map[string][]string

// Last returns the final value given for flag.
func (v Values) Last(flag string) (string, bool) {
	vals := v[flag]
	if len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}

// ScanArgs is ParseArgs for commands with flags that take a value. A letter
// listed in valued consumes the rest of its token, or the next token when
// nothing follows it, so "-n 5", "-n5" and "-in5" all work.
func ScanArgs(tokens []string, valued string) (Options, Values, []string) {
	opts := Options{}
	vals := Values{}
	params := []string{}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !isOption(tok) {
			params = append(params, tok)
			continue
		}
		if strings.HasPrefix(tok, "--") {
			if name := tok[2:]; name != "" {
				opts[name] = struct{}{}
			}
			continue
		}

		flags := tok[1:]
		for j, ch := range flags {
			flag := string(ch)
			if !strings.ContainsRune(valued, ch) {
				opts[flag] = struct{}{}
				continue
			}
			opts[flag] = struct{}{}
			if rest := flags[j+len(flag):]; rest != "" {
				vals[flag] = append(vals[flag], rest)
			} else if i+1 < len(tokens) {
				i++
				vals[flag] = append(vals[flag], tokens[i])
			}
			break
		}
	}

	return opts, vals, params
}
