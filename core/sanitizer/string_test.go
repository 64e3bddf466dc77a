package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperlocaleyes/backend/core/sanitizer"
)

func TestNeutralizeXSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"tags", `<img src=x onerror="a()">`, `&lt;img src=x onerror="a()"&gt;`},
		{"already escaped", "&lt;b&gt;", "&lt;b&gt;"},
		{"fullwidth brackets", "＜script＞", "&lt;script&gt;"},
		{"ligature", "ﬁle", "file"},
		{"control chars", "a\x00b\x07c\n", "abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := sanitizer.NeutralizeXSS(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, sanitizer.NeutralizeXSS(got))
		})
	}
}

func TestIsOperatorKey(t *testing.T) {
	t.Parallel()
	assert.True(t, sanitizer.IsOperatorKey("$gt"))
	assert.True(t, sanitizer.IsOperatorKey("a.b"))
	assert.False(t, sanitizer.IsOperatorKey("price$"))
	assert.False(t, sanitizer.IsOperatorKey("content"))
}

func TestStringHelpers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "héllo", sanitizer.MaxLength("héllo wörld", 5))
	assert.Equal(t, "", sanitizer.MaxLength("x", 0))
	assert.Equal(t, "a b c", sanitizer.SingleLine(" a\n b\r\n  c "))
	assert.Equal(t, "user@example.com", sanitizer.TrimToLower("  User@Example.COM "))
	assert.Equal(t, "a  b", sanitizer.TrimSpace("\t a  b \n"))
	assert.Equal(t, "trim", sanitizer.Trim{}.Name())
}

func TestSanitizeStruct(t *testing.T) {
	t.Parallel()

	type profile struct {
		Bio string `sanitize:"text,max:10"`
	}
	type input struct {
		Email   string   `sanitize:"email"`
		Name    *string  `sanitize:"trim"`
		Tags    []string `sanitize:"trim,lower"`
		Raw     string   `sanitize:"-"`
		Untaged string
		Profile profile
		Ptr     *profile
		hidden  string `sanitize:"trim"`
	}

	name := "  Ann  "
	in := input{
		Email:   " Ann@Example.com ",
		Name:    &name,
		Tags:    []string{" Go ", "API"},
		Raw:     "  raw  ",
		Untaged: "  keep  ",
		Profile: profile{Bio: "  lots   of   words here  "},
		Ptr:     &profile{Bio: " short "},
		hidden:  "  x  ",
	}

	require.NoError(t, sanitizer.SanitizeStruct(&in))
	assert.Equal(t, "ann@example.com", in.Email)
	assert.Equal(t, "Ann", *in.Name)
	assert.Equal(t, []string{"go", "api"}, in.Tags)
	assert.Equal(t, "  raw  ", in.Raw)
	assert.Equal(t, "  keep  ", in.Untaged)
	assert.Equal(t, "lots of wo", in.Profile.Bio)
	assert.Equal(t, "short", in.Ptr.Bio)
	assert.Equal(t, "  x  ", in.hidden)

	assert.ErrorIs(t, sanitizer.SanitizeStruct(in), sanitizer.ErrNotStructPointer)
	var s string
	assert.ErrorIs(t, sanitizer.SanitizeStruct(&s), sanitizer.ErrNotStructPointer)
}

func TestRegisterSanitizer(t *testing.T) {
	t.Parallel()

	sanitizer.RegisterSanitizer("test_redact", func(string) string { return "***" })

	type secret struct {
		Token string `sanitize:"test_redact"`
	}
	s := secret{Token: "abc"}
	require.NoError(t, sanitizer.SanitizeStruct(&s))
	assert.Equal(t, "***", s.Token)
}
