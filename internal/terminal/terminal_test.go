package terminal

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tree-decor/internal/commands"
	"tree-decor/internal/logger"
)

func TestSubmitRunsCommands(t *testing.T) {
	log := logger.New("-")
	reg := commands.NewRegistry()
	var got []string
	reg.Register("toy", "<id>", nil, func(args []string) error {
		got = args
		return nil
	})
	reg.Register("fail", "", nil, func([]string) error { return errors.New("nope") })
	term := New(log, reg)

	term.Submit("cmd toy ball")
	assert.Equal(t, []string{"ball"}, got)

	term.Submit("cmd fail")
	term.Submit("hello")
	lines := log.Lines()
	require.Len(t, lines, 5)
	assert.True(t, strings.HasSuffix(lines[0], "> cmd toy ball"))
	assert.True(t, strings.HasSuffix(lines[2], "] nope"))
	assert.Contains(t, lines[4], "cmd help")
	assert.Len(t, term.history, 3)
}

func TestClipKeepsRunes(t *testing.T) {
	long := strings.Repeat("ё", 150)
	c := clip(long)
	assert.True(t, strings.HasSuffix(c, "..."))
	assert.LessOrEqual(t, len(c), maxLineLen)
	assert.Equal(t, "short", clip("short"))
}
