package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectMode(t *testing.T) {
	reset := func() {
		flagCreate, flagAppend, flagExtract, flagList = false, false, false, false
	}

	reset()
	flagCreate = true
	assert.Equal(t, modeCreate, selectMode())

	reset()
	flagAppend = true
	assert.Equal(t, modeAppend, selectMode())

	reset()
	flagExtract = true
	assert.Equal(t, modeExtract, selectMode())

	reset()
	flagList = true
	assert.Equal(t, modeList, selectMode())
}
