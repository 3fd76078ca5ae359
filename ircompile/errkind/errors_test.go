package errkind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFatalWrapsWithStack(t *testing.T) {
	err := Fatal(Unimplemented.New("window frame bound kind"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unimplemented")
	assert.True(t, IsUnimplemented(err), "Fatal's stack-wrapping must not hide the underlying Kind")
}

func TestFatalOfNilIsNil(t *testing.T) {
	assert.NoError(t, Fatal(nil))
}

func TestIsDuplicateDefinitionOnlyMatchesThatKind(t *testing.T) {
	dup := DuplicateDefinition.New("v")
	assert.True(t, IsDuplicateDefinition(dup))
	assert.False(t, IsDuplicateDefinition(Translation.New("bad plan")))
}

func TestKindMessagesInterpolateArgs(t *testing.T) {
	err := UnsupportedPromotion.New("STRING", "INT64")
	assert.Contains(t, err.Error(), "STRING")
	assert.Contains(t, err.Error(), "INT64")
}
