package bytecode

import "sort"

// ExceptionHandler is one entry of a method's exception table: bytecode in
// [StartPC, EndPC) is guarded by a handler starting at HandlerPC, catching
// CatchType (the empty string denotes a catch-all / finally handler).
// Table order is semantically significant: for two handlers whose ranges
// both cover a given pc, the earlier entry is tried first ("most specific
// finally" queries in spec.md §3 rely on this).
type ExceptionHandler struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType string // "" means catch-all (e.g. a finally block)
}

// Covers reports whether pc falls in this handler's protected range.
func (h ExceptionHandler) Covers(pc int) bool {
	return pc >= h.StartPC && pc < h.EndPC
}

// LineNumberEntry maps a pc to a source line; the table is optional and,
// when present, is consulted only for diagnostics (spec.md §7).
type LineNumberEntry struct {
	StartPC int
	Line    int
}

// Code is the immutable bundle the class-file reader hands to the rest of
// the pipeline: the decoded instruction array indexed by pc, the
// exception-handler table, and an optional line-number table. Nothing in
// this package or downstream mutates a Code value after construction.
type Code struct {
	instructions map[int]Instruction // keyed by pc; not every byte offset need be a pc, but every pc key is one
	order        []int               // instructions' pcs in ascending order, precomputed once
	codeSize     int                 // length, in bytes, of the original instruction array
	handlers     []ExceptionHandler
	lines        []LineNumberEntry // sorted by StartPC; may be nil
}

// NewCode builds a Code from a pc-ordered instruction list (pcs need not be
// contiguous — an instruction can be wider than one byte — but must be
// strictly increasing) and the method's exception handler table. codeSize
// is the byte length of the original instruction array; it may exceed the
// last instruction's pc plus its width is irrelevant here since width is
// not modeled, but it must be strictly greater than the last instruction's
// pc so PCOfNextInstruction(lastPC) == codeSize is well defined.
func NewCode(instructions []Instruction, codeSize int, handlers []ExceptionHandler, lines []LineNumberEntry) *Code {
	m := make(map[int]Instruction, len(instructions))
	order := make([]int, 0, len(instructions))
	for _, ins := range instructions {
		m[ins.PC()] = ins
		order = append(order, ins.PC())
	}
	sort.Ints(order)
	sortedLines := append([]LineNumberEntry(nil), lines...)
	sort.Slice(sortedLines, func(i, j int) bool { return sortedLines[i].StartPC < sortedLines[j].StartPC })
	return &Code{
		instructions: m,
		order:        order,
		codeSize:     codeSize,
		handlers:     handlers,
		lines:        sortedLines,
	}
}

// CodeSize is the instruction array's length in bytes (spec.md §3: "Code
// ... codeSize (array length in bytes)").
func (c *Code) CodeSize() int { return c.codeSize }

// InstructionAt returns the instruction at pc, or nil if pc does not name
// an instruction start.
func (c *Code) InstructionAt(pc int) Instruction { return c.instructions[pc] }

// PCOfNextInstruction returns the pc of the instruction immediately
// following pc in program order, or CodeSize() if pc names the last
// instruction. It panics if pc does not name an instruction.
func (c *Code) PCOfNextInstruction(pc int) int {
	idx := c.indexOf(pc)
	if idx+1 < len(c.order) {
		return c.order[idx+1]
	}
	return c.codeSize
}

func (c *Code) indexOf(pc int) int {
	i := sort.SearchInts(c.order, pc)
	if i >= len(c.order) || c.order[i] != pc {
		panic("bytecode: pc does not name an instruction start")
	}
	return i
}

// AllPCs returns every instruction pc in ascending order.
func (c *Code) AllPCs() []int { return c.order }

// ExceptionHandlers returns the handler table, in its original,
// semantically-significant order.
func (c *Code) ExceptionHandlers() []ExceptionHandler { return c.handlers }

// Lines returns the line-number table, sorted by StartPC; nil if the
// method carries none.
func (c *Code) Lines() []LineNumberEntry { return c.lines }

// HandlersCovering returns, in table order, every handler whose protected
// range covers pc.
func (c *Code) HandlersCovering(pc int) []ExceptionHandler {
	var out []ExceptionHandler
	for _, h := range c.handlers {
		if h.Covers(pc) {
			out = append(out, h)
		}
	}
	return out
}

// LineOf returns the source line registered for pc, or 0 if there is no
// line-number table or no entry covers pc.
func (c *Code) LineOf(pc int) int {
	if len(c.lines) == 0 || pc < 0 || pc >= c.codeSize {
		return 0
	}
	i := sort.Search(len(c.lines), func(i int) bool { return c.lines[i].StartPC > pc }) - 1
	if i < 0 {
		return 0
	}
	return c.lines[i].Line
}
