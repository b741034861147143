package indenter

import "testing"

func TestIndenter(t *testing.T) {
	tests := []struct {
		got, expected string
	}{
		{Indenter().Start("{").NestStrings("a").End("}"), "{a}"},
		{Indenter().Start("{").NestStrings("a", "b").End("}"), "{\n  a\n  b\n}"},
		{Indenter().Start("[").NestStringsSep(",", "a", "b").End("]"), "[\n  a,\n  b\n]"},
		{
			Indenter().Start("{").NestStrings(
				"x",
				Indenter().Start("{").NestStrings("y", "z").End("}"),
			).End("}"),
			"{\n  x\n  {\n    y\n    z\n  }\n}",
		},
		{Indenter().Start("(").NestThunked(func() string { return "t" }).End(")"), "(t)"},
	}

	for _, test := range tests {
		if test.got != test.expected {
			t.Errorf("got %q, expected %q", test.got, test.expected)
		}
	}
}
