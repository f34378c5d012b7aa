package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	now := time.Now()

	sameYear := time.Date(now.Year(), 3, 5, 14, 30, 0, 0, time.Local)
	assert.Equal(t, "Mar  5 14:30", formatTime(sameYear))

	lastYear := time.Date(now.Year()-1, 3, 5, 14, 30, 0, 0, time.Local)
	assert.Equal(t, "Mar  5  "+lastYear.Format("2006"), formatTime(lastYear))
}

func TestPrintTable_AlignsColumns(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"ID", "NAME"}, [][]string{
		{"1", "short"},
		{"22", "much longer name"},
	})

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	assert.Len(t, lines, 3)

	// The ID column pads to the widest cell.
	assert.Equal(t, "ID  NAME", string(lines[0]))
	assert.Equal(t, "1   short", string(lines[1]))
	assert.Equal(t, "22  much longer name", string(lines[2]))
}
