package glimm

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/gogpu/glimm/internal/gpu"
)

// listRecording is the display list between NewList and EndList.
type listRecording struct {
	id   uint32
	mode Enum
	rec  *gpu.Recorder
}

// GenLists reserves n consecutive list names and returns the first, or 0
// when n is not positive.
func (c *Context) GenLists(n int) uint32 {
	if n <= 0 {
		c.setError(InvalidValue, "GenLists")
		return 0
	}
	if !c.usable("GenLists") {
		return 0
	}
	first := c.nextList + 1
	for !c.freeRange(first, n) {
		first++
	}
	for i := range uint32(n) {
		c.lists[first+i] = nil
	}
	c.nextList = first + uint32(n) - 1
	return first
}

func (c *Context) freeRange(first uint32, n int) bool {
	if first == 0 {
		return false
	}
	for i := range uint32(n) {
		if _, used := c.lists[first+i]; used {
			return false
		}
	}
	return true
}

// NewList starts recording display list id. Draws and matrix calls are
// captured until EndList; other state calls apply immediately.
func (c *Context) NewList(id uint32, mode Enum) {
	if !c.usable("NewList") {
		return
	}
	if id == 0 {
		c.setError(InvalidValue, "NewList")
		return
	}
	if mode != Compile && mode != CompileAndExecute {
		c.setError(InvalidEnum, "NewList")
		return
	}
	if c.recording != nil {
		c.setError(InvalidOperation, "NewList")
		return
	}
	c.recording = &listRecording{id: id, mode: mode, rec: gpu.NewRecorder()}
}

// EndList compiles the list being recorded into a GPU vertex buffer,
// replacing any list with the same name. In CompileAndExecute mode the list
// is then called.
func (c *Context) EndList() {
	if !c.usable("EndList") {
		return
	}
	r := c.recording
	if r == nil {
		c.setError(InvalidOperation, "EndList")
		return
	}
	c.recording = nil
	dl, err := r.rec.Compile(c.backend)
	if err != nil {
		c.fail("EndList", err)
		return
	}
	if old := c.lists[r.id]; old != nil {
		old.Release(c.backend)
	}
	c.lists[r.id] = dl
	Logger().Debug("glimm: display list compiled", "list", r.id,
		"commands", len(dl.Commands()), "vertices", dl.VertexCount())
	if r.mode == CompileAndExecute {
		c.CallList(r.id)
	}
}

// IsList reports whether id names a compiled display list.
func (c *Context) IsList(id uint32) bool {
	return c.lists[id] != nil
}

// CallList replays display list id. Names without a compiled list are
// ignored. A call made while recording is not captured and executes
// immediately.
func (c *Context) CallList(id uint32) {
	if !c.usable("CallList") {
		return
	}
	c.callList(id)
}

func (c *Context) callList(id uint32) {
	dl := c.lists[id]
	if dl == nil {
		return
	}
	c.syncTexture()
	if err := dl.Draw(c.backend); err != nil {
		c.fail("CallList", err)
	}
}

// ListBase sets the offset CallLists and CallListsString add to each name.
func (c *Context) ListBase(base uint32) {
	if !c.usable("ListBase") {
		return
	}
	c.listBase = base
}

// CallLists calls ListBase+id for each id in order.
func (c *Context) CallLists(ids []uint32) {
	if !c.usable("CallLists") {
		return
	}
	for _, id := range ids {
		c.callList(c.listBase + id)
	}
}

// CallListsString calls ListBase+b for each byte b of s encoded as
// Windows-1252, the layout of bitmap font lists built one list per
// character. Runes outside the code page call the list for 0x1A.
func (c *Context) CallListsString(s string) {
	if !c.usable("CallListsString") {
		return
	}
	enc, err := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		c.setError(InvalidValue, "CallListsString")
		return
	}
	for _, b := range enc {
		c.callList(c.listBase + uint32(b))
	}
}

// DeleteLists deletes n lists starting at id. Their vertex buffers are
// released after the frames that may draw them retire.
func (c *Context) DeleteLists(id uint32, n int) {
	if n < 0 {
		c.setError(InvalidValue, "DeleteLists")
		return
	}
	if !c.usable("DeleteLists") {
		return
	}
	for i := range uint32(n) {
		name := id + i
		if dl := c.lists[name]; dl != nil {
			dl.Release(c.backend)
		}
		delete(c.lists, name)
	}
}
