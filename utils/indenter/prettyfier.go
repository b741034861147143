// Package indenter builds nested, indented multi-line representations of
// composite values.
package indenter

import (
	"fmt"
	"strings"
)

// indenter accumulates a rendering. Nested renderings are re-indented line
// by line, so an indenter carries no global state and can be used from
// concurrent analyses.
type indenter struct {
	buf string
}

func Indenter() indenter {
	return indenter{}
}

const unit = "  "

func (indenter) Start(str string) indenter {
	return indenter{str}
}

func indentLines(str string) string {
	return unit + strings.ReplaceAll(str, "\n", "\n"+unit)
}

func (i indenter) NestStrings(strs ...string) indenter {
	return i.NestStringsSep("", strs...)
}

func (i indenter) NestStringsSep(sep string, strs ...string) indenter {
	if len(strs) == 1 {
		i.buf += strs[0]
		return i
	}

	var sb strings.Builder
	sb.WriteString(i.buf)
	for idx, str := range strs {
		sb.WriteString("\n")
		sb.WriteString(indentLines(str))
		if idx < len(strs)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")
	i.buf = sb.String()
	return i
}

func (i indenter) Nest(strs ...fmt.Stringer) indenter {
	return i.NestSep("", strs...)
}

func (i indenter) NestSep(sep string, strs ...fmt.Stringer) indenter {
	ss := make([]string, len(strs))
	for idx, str := range strs {
		ss[idx] = str.String()
	}
	return i.NestStringsSep(sep, ss...)
}

func (i indenter) NestThunked(strs ...func() string) indenter {
	return i.NestThunkedSep("", strs...)
}

func (i indenter) NestThunkedSep(sep string, strs ...func() string) indenter {
	ss := make([]string, len(strs))
	for idx, str := range strs {
		ss[idx] = str()
	}
	return i.NestStringsSep(sep, ss...)
}

func (i indenter) End(str string) string {
	return i.buf + str
}
