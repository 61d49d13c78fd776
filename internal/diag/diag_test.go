package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestList(t *testing.T) {
	var list List
	list.Add(Warning, "", "pData", "unrecognized %s parameter", "void*")
	list.Add(Notice, "vkCmdDraw", "", "nothing to report")

	assert.False(t, list.HasErrors())
	assert.Equal(t, 1, list.Count(Warning))
	assert.Equal(t, "WARNING: unrecognized void* parameter", list[0].String())
	assert.Equal(t, "NOTICE: nothing to report (vkCmdDraw)", list[1].String())

	named := list.ForCommand("vkSetHostData")
	assert.Equal(t, "WARNING: unrecognized void* parameter (vkSetHostData.pData)", named[0].String())
	assert.Equal(t, "vkCmdDraw", named[1].Command)
	assert.Empty(t, list[0].Command, "ForCommand must not modify the receiver")

	list.Add(Error, "vkMapMemory", "ppData", "refusing")
	assert.True(t, list.HasErrors())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "ERROR", Error.String())
	assert.Equal(t, "Severity(7)", Severity(7).String())
	assert.True(t, Notice < Warning && Warning < Error)
}
