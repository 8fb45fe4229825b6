package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prefix = 0x02 // Ctrl-B

func feed(r *Router, s string) []Action {
	return r.Feed([]byte(s))
}

func TestPlainBytesPassThrough(t *testing.T) {
	r := NewRouter(prefix, nil)
	actions := feed(r, "ls -la\r")
	require.Len(t, actions, 1)
	assert.Equal(t, []byte("ls -la\r"), actions[0].Literal)
	assert.Equal(t, CmdNone, actions[0].Cmd)
}

func TestPrefixThenBinding(t *testing.T) {
	r := NewRouter(prefix, nil)
	actions := r.Feed([]byte{prefix, '%'})
	require.Len(t, actions, 1)
	assert.Equal(t, CmdSplitVertical, actions[0].Cmd)
}

func TestPrefixTwiceSendsLiteralPrefix(t *testing.T) {
	r := NewRouter(prefix, nil)
	actions := r.Feed([]byte{prefix, prefix})
	require.Len(t, actions, 1)
	assert.Equal(t, []byte{prefix}, actions[0].Literal)
}

func TestUnboundKeyFallsThroughWithPrefix(t *testing.T) {
	r := NewRouter(prefix, nil)
	actions := r.Feed([]byte{prefix, 'z'})
	require.Len(t, actions, 1)
	assert.Equal(t, []byte{prefix, 'z'}, actions[0].Literal)
}

func TestPrefixSpansFeeds(t *testing.T) {
	r := NewRouter(prefix, nil)
	assert.Empty(t, r.Feed([]byte{prefix}))
	assert.True(t, r.Pending())

	actions := r.Feed([]byte{'d'})
	require.Len(t, actions, 1)
	assert.Equal(t, CmdDetach, actions[0].Cmd)
	assert.False(t, r.Pending())
}

func TestDigitSelectsWindow(t *testing.T) {
	r := NewRouter(prefix, nil)
	actions := r.Feed([]byte{prefix, '3'})
	require.Len(t, actions, 1)
	assert.Equal(t, CmdSelectWindow, actions[0].Cmd)
	assert.Equal(t, 3, actions[0].Arg)
}

func TestMixedStreamOrdering(t *testing.T) {
	r := NewRouter(prefix, nil)
	input := append([]byte("echo "), prefix, 'c')
	input = append(input, []byte(" done")...)
	actions := r.Feed(input)

	require.Len(t, actions, 3)
	assert.Equal(t, []byte("echo "), actions[0].Literal)
	assert.Equal(t, CmdNewWindow, actions[1].Cmd)
	assert.Equal(t, []byte(" done"), actions[2].Literal)
}

func TestCustomBindings(t *testing.T) {
	table, err := ParseBindings(map[string]string{"|": "split-vertical", "q": "kill-pane"})
	require.NoError(t, err)

	r := NewRouter(prefix, table)
	actions := r.Feed([]byte{prefix, '|'})
	require.Len(t, actions, 1)
	assert.Equal(t, CmdSplitVertical, actions[0].Cmd)

	// Defaults survive underneath the overrides.
	actions = r.Feed([]byte{prefix, 'd'})
	require.Len(t, actions, 1)
	assert.Equal(t, CmdDetach, actions[0].Cmd)
}

func TestMouseReportDecoded(t *testing.T) {
	r := NewRouter(prefix, nil)
	actions := feed(r, "ab\x1b[<0;10;5Mcd")
	require.Len(t, actions, 3)
	assert.Equal(t, []byte("ab"), actions[0].Literal)
	require.NotNil(t, actions[1].Mouse)
	assert.Equal(t, 0, actions[1].Mouse.Button)
	assert.Equal(t, 9, actions[1].Mouse.Col)
	assert.Equal(t, 4, actions[1].Mouse.Row)
	assert.True(t, actions[1].Mouse.Press)
	assert.Equal(t, []byte("cd"), actions[2].Literal)
}

func TestMouseReleaseAndDrag(t *testing.T) {
	r := NewRouter(prefix, nil)
	actions := feed(r, "\x1b[<0;3;3m\x1b[<32;4;3M")
	require.Len(t, actions, 2)
	assert.True(t, actions[0].Mouse.Release)
	assert.True(t, actions[1].Mouse.Motion)
	assert.Equal(t, 0, actions[1].Mouse.Button)
}

func TestArrowKeysStayLiteral(t *testing.T) {
	r := NewRouter(prefix, nil)
	actions := feed(r, "\x1b[A\x1b[<1;2")
	// Arrow keys and truncated reports both pass through untouched.
	require.Len(t, actions, 1)
	assert.Equal(t, []byte("\x1b[A\x1b[<1;2"), actions[0].Literal)
}

func TestDigitBindingBeatsWindowSelect(t *testing.T) {
	table, err := ParseBindings(map[string]string{"1": "detach"})
	require.NoError(t, err)

	r := NewRouter(prefix, table)
	actions := r.Feed([]byte{prefix, '1'})
	require.Len(t, actions, 1)
	assert.Equal(t, CmdDetach, actions[0].Cmd)

	// Digits without a binding still select windows.
	actions = r.Feed([]byte{prefix, '2'})
	require.Len(t, actions, 1)
	assert.Equal(t, CmdSelectWindow, actions[0].Cmd)
	assert.Equal(t, 2, actions[0].Arg)
}

func TestParseBindingsRejectsBadInput(t *testing.T) {
	_, err := ParseBindings(map[string]string{"ab": "detach"})
	assert.Error(t, err)

	_, err = ParseBindings(map[string]string{"x": "no-such-command"})
	assert.Error(t, err)
}
