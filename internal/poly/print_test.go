package poly_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presburger/internal/poly"
)

func TestFormatISL(t *testing.T) {
	ctx := poly.NewContext()
	m := mustMap(t, ctx, "[n] -> { [x] -> [y] : y = x + 1 and 0 <= x <= n }")
	out := poly.FormatMap(m, poly.FormatISL)
	assert.True(t, strings.HasPrefix(out, "[n] -> { "))
	assert.Contains(t, out, "->")
	assert.Contains(t, out, ">= 0")
}

func TestFormatOmega(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx, "{ [x] : 0 <= x <= 4 and x >= 1 }")
	out := poly.FormatSet(s, poly.FormatOmega)
	assert.Contains(t, out, "&&")
	assert.NotContains(t, out, " and ")
}

func TestFormatLatex(t *testing.T) {
	ctx := poly.NewContext()
	m := mustMap(t, ctx, "{ [x] -> [y] : y >= x }")
	out := poly.FormatMap(m, poly.FormatLatex)
	assert.Contains(t, out, `\{`)
	assert.Contains(t, out, `\to`)
	assert.Contains(t, out, `\geq`)
}

func TestFormatPolylib(t *testing.T) {
	ctx := poly.NewContext()
	s := mustSet(t, ctx, "{ [x] : x = 3 }")
	out := poly.FormatSet(s, poly.FormatPolylib)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1", lines[0])      // one disjunct
	assert.Equal(t, "1 3", lines[1])    // one row, 1+1+1 columns
	assert.Equal(t, "0 -1 3", lines[2]) // equality 3 - x = 0
}

func TestParseFormatOption(t *testing.T) {
	for name, want := range map[string]poly.Format{
		"isl":     poly.FormatISL,
		"omega":   poly.FormatOmega,
		"polylib": poly.FormatPolylib,
		"latex":   poly.FormatLatex,
	} {
		got, ok := poly.ParseFormat(name)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := poly.ParseFormat("json")
	assert.False(t, ok)
}
