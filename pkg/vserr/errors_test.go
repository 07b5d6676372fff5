package vserr

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	err := New(KindParse, "known.csv", "line %d: bad id %q", 3, "abc")

	assert.True(t, errors.Is(err, ErrParse))
	assert.False(t, errors.Is(err, ErrIO))
	assert.Equal(t, `known.csv: line 3: bad id "abc"`, err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	wrapped := Wrap(KindIO, "missing.csv", os.ErrNotExist, "cannot open result file")
	outer := fmt.Errorf("loading experiment: %w", wrapped)

	assert.True(t, errors.Is(outer, ErrIO))
	assert.True(t, errors.Is(outer, os.ErrNotExist))
	assert.Equal(t, KindIO, KindOf(outer))
	assert.Nil(t, Wrap(KindIO, "x", nil, "unused"))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, KindZeroCategory, KindOf(New(KindZeroCategory, "", "no actives")))
}
