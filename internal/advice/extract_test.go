package advice

import (
	"errors"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: `{"a":1}`, want: `{"a":1}`},
		{name: "prose and fence", in: "Sure!\n```json\n{\"a\":1}\n```\nHope that helps.", want: `{"a":1}`},
		{name: "nested", in: `x {"a":{"b":{"c":2}}} y`, want: `{"a":{"b":{"c":2}}}`},
		{name: "brace in string", in: `{"title":"use {braces} }","n":1}`, want: `{"title":"use {braces} }","n":1}`},
		{name: "escaped quote", in: `{"q":"say \"}\" loud"} trailing {"b":2}`, want: `{"q":"say \"}\" loud"}`},
		{name: "first of two", in: `{"a":1} and {"b":2}`, want: `{"a":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestExtractJSONObject_Failures(t *testing.T) {
	for _, in := range []string{
		"",
		"no braces at all",
		`{"a": {"b": 1}`,
		`{"a": "}`,
		"null",
	} {
		if _, err := ExtractJSONObject(in); !errors.Is(err, ErrNoJSONObject) {
			t.Errorf("%q: expected ErrNoJSONObject, got %v", in, err)
		}
	}
}

func TestDecodeModelJSON_InvalidSpan(t *testing.T) {
	var out map[string]any
	err := decodeModelJSON("{this is not json}", &out)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if errors.Is(err, ErrNoJSONObject) {
		t.Fatalf("balanced span should fail in decoding, not extraction")
	}
}

func TestIsNullAnswer(t *testing.T) {
	for in, want := range map[string]bool{
		"null":                 true,
		"  NULL\n":             true,
		"```json\nnull\n```":   true,
		"```\nnull\n```":       true,
		`{"question":"null?"}`: false,
		"":                     false,
	} {
		if got := isNullAnswer(in); got != want {
			t.Errorf("%q: got %v want %v", in, got, want)
		}
	}
}
