package cfg

// Recorder is the "CFG-Recording Domain" capability (spec.md §4.5): a
// mutable edge set the interpreter feeds one transfer-function edge at a
// time while it runs, building the "AI-based" CFG — restricted to pcs the
// fixpoint actually reached — in lock step with the worklist. It is not a
// domain.Domain itself; interp.Run creates one per run and feeds it
// alongside the domain, matching spec.md §9's "capability record"
// guidance.
type Recorder struct {
	succPC           map[int][]int
	predPC           map[int][]int
	reachable        map[int]bool
	handlerEntries   map[int]bool
	subroutineStarts map[int]bool
}

// NewRecorder creates an empty edge recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		succPC:           make(map[int][]int),
		predPC:           make(map[int][]int),
		reachable:        make(map[int]bool),
		handlerEntries:   make(map[int]bool),
		subroutineStarts: make(map[int]bool),
	}
}

// RecordEdge adds one directed pc-level edge; it is idempotent, since the
// interpreter revisits edges every time a successor is (re)scheduled.
func (r *Recorder) RecordEdge(from, to int) {
	r.reachable[from] = true
	r.reachable[to] = true
	if !containsInt(r.succPC[from], to) {
		r.succPC[from] = append(r.succPC[from], to)
	}
	if !containsInt(r.predPC[to], from) {
		r.predPC[to] = append(r.predPC[to], from)
	}
}

// MarkReachable records pc as evaluated even if it has no recorded edge
// yet (e.g. the method's entry pc, before its first transfer runs).
func (r *Recorder) MarkReachable(pc int) { r.reachable[pc] = true }

// MarkHandlerEntry flags pc as an exception-handler entry block.
func (r *Recorder) MarkHandlerEntry(pc int) { r.handlerEntries[pc] = true }

// MarkSubroutineStart flags pc as the target of some jsr.
func (r *Recorder) MarkSubroutineStart(pc int) { r.subroutineStarts[pc] = true }

// ForeachSuccessorOf/ForeachPredecessorOf/AllSuccessorsOf are the queries
// spec.md §4.5 names; they are plain slice-returning methods rather than
// visitor callbacks per spec.md §9's "observers / callbacks" design note.
func (r *Recorder) ForeachSuccessorOf(pc int) []int   { return r.succPC[pc] }
func (r *Recorder) ForeachPredecessorOf(pc int) []int { return r.predPC[pc] }
func (r *Recorder) AllSuccessorsOf(pcs []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, pc := range pcs {
		for _, s := range r.succPC[pc] {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Finish materializes the AI-based CFG from the edges recorded so far.
// Called once, after the interpreter's fixpoint has converged (or
// aborted); the resulting CFG is immutable like the static one Build
// produces, satisfying I-CFG1/I-CFG2 over exactly evaluatedInstructions.
func (r *Recorder) Finish() *CFG {
	pcs := make([]int, 0, len(r.reachable))
	for pc := range r.reachable {
		pcs = append(pcs, pc)
	}
	leaders := map[int]bool{}
	for pc := range r.reachable {
		if len(r.predPC[pc]) != 1 {
			leaders[pc] = true
		}
	}
	for pc := range r.handlerEntries {
		leaders[pc] = true
	}
	if len(pcs) > 0 {
		min := pcs[0]
		for _, pc := range pcs {
			if pc < min {
				min = pc
			}
		}
		leaders[min] = true
	}
	return buildFromEdges(pcs, r.succPC, r.predPC, leaders, r.handlerEntries, r.subroutineStarts)
}

// Reachable reports whether pc was ever recorded as reached.
func (r *Recorder) Reachable(pc int) bool { return r.reachable[pc] }
