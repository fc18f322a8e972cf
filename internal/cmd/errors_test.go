package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_CombineErrors(t *testing.T) {
	require.NoError(t, CombineErrors())
	require.NoError(t, CombineErrors(nil, nil))

	one := errors.New("one")
	require.Equal(t, one, CombineErrors(nil, one))

	combined := CombineErrors(one, nil, errTestsFailed)
	require.Equal(t, "multiple errors occurred:\n  * one\n  * tests failed\n", combined.Error())
	require.ErrorIs(t, combined, one)
	require.ErrorIs(t, combined, errTestsFailed)
}
