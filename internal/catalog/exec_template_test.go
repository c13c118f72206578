package catalog

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSubstitutesAndStripsQuotes(t *testing.T) {
	cmd := &Command{
		Name: "foo",
		Exec: `/usr/bin/foo ${0} "${1}"`,
		Args: []*regexp.Regexp{
			regexp.MustCompile(`^[A-Za-z0-9._-]+$`),
			regexp.MustCompile(`^[0-9 ]+$`),
		},
	}

	program, argv, err := cmd.Build([]string{"alpha", "1 2 3"})
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/foo", program)
	assert.Equal(t, []string{"alpha", "1 2 3"}, argv)
}

func TestBuildArgCountMismatch(t *testing.T) {
	cmd := &Command{
		Exec: "/bin/echo ${0}",
		Args: []*regexp.Regexp{regexp.MustCompile(`^\w+$`)},
	}
	_, _, err := cmd.Build([]string{"a", "b"})
	require.Error(t, err)
	var ace *ArgCountError
	require.ErrorAs(t, err, &ace)
	assert.Equal(t, 2, ace.Got)
	assert.Equal(t, 1, ace.Expected)
}

func TestBuildRejectsNonMatchingArgument(t *testing.T) {
	cmd := &Command{
		Exec: "/bin/echo ${0}",
		Args: []*regexp.Regexp{regexp.MustCompile(`^\d+$`)},
	}
	_, _, err := cmd.Build([]string{"not-a-number"})
	require.Error(t, err)
	var ame *ArgMatchError
	require.ErrorAs(t, err, &ame)
}

func TestBuildAllowsEmptyArgumentBypassingRegex(t *testing.T) {
	cmd := &Command{
		Exec: "/bin/echo ${0}",
		Args: []*regexp.Regexp{regexp.MustCompile(`^\d+$`)},
	}
	program, argv, err := cmd.Build([]string{""})
	require.NoError(t, err)
	assert.Equal(t, "/bin/echo", program)
	assert.Equal(t, []string{""}, argv)
}

func TestBuildQuotedWordIsSingleToken(t *testing.T) {
	cmd := &Command{
		Exec: `/bin/sh -c 'echo ${0}'`,
		Args: []*regexp.Regexp{regexp.MustCompile(`^\w+$`)},
	}
	program, argv, err := cmd.Build([]string{"hi"})
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", program)
	// the quoted word is a single token; substitution applies inside it,
	// then one layer of quotes is stripped.
	assert.Equal(t, []string{"-c", "echo hi"}, argv)
}
