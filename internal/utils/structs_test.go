package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	ID      string  `db:"id"`
	Name    *string `db:"name,omitempty"`
	Skipped string  `db:"-"`
	NoTag   string
	private string `db:"private"`
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "name"}, Columns(row{}))
	assert.Equal(t, []string{"id", "name"}, Columns(&row{}))
	assert.Panics(t, func() { Columns("not a struct") })
}

func TestColumnValues(t *testing.T) {
	name := "Rahim"
	m := ColumnValues(&row{ID: "abc", Name: &name, Skipped: "x", NoTag: "y", private: "z"})

	assert.Equal(t, map[string]any{"id": "abc", "name": &name}, m)
}

func TestWrapErr(t *testing.T) {
	assert.NoError(t, WrapErr(nil, "ignored"))

	base := errors.New("boom")
	assert.Same(t, base, WrapErr(base, ""))

	wrapped := WrapErr(base, "failed to load")
	assert.EqualError(t, wrapped, "failed to load: boom")
	assert.ErrorIs(t, wrapped, base)
}

func TestTrimmedPtr(t *testing.T) {
	assert.Nil(t, TrimmedPtr("   "))
	assert.Equal(t, "O+", *TrimmedPtr(" O+ "))
	assert.Equal(t, "", PtrString(nil))
}

func TestNanoID(t *testing.T) {
	id := NanoID()
	assert.Len(t, id, NanoidSize)
	assert.NotEqual(t, id, NanoID())
	assert.Len(t, NanoIDSize(16), 16)
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(NanoID()))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID(NanoIDSize(16)))
	assert.False(t, ValidID("../../etc/passwd-aaaaaaaaaaaaaaa"))
}
