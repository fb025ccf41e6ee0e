package gosymdiff

import (
	"fmt"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// ============================================================
// Node storage
// ============================================================

// NodeID is a handle to a node slot inside an Arena. Handles stay valid while
// the arena grows; they are invalidated only by freeing the node.
type NodeID uint32

// NilNode is the reserved loopback slot 0. It is never handed out by Alloc and
// marks an absent child.
const NilNode NodeID = 0

// DefaultBlockSize is the number of node slots in one container.
const DefaultBlockSize = 64

// Kind tags the payload of a node.
type Kind uint8

const (
	KindNone Kind = iota
	KindNumber
	KindVariable
	KindOperation
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "num"
	case KindVariable:
		return "var"
	case KindOperation:
		return "op"
	}
	return "none"
}

type node struct {
	kind   Kind
	op     Op
	num    float64
	varIdx int
	// left doubles as the next pointer while the slot sits on the free list.
	left, right NodeID
	free        bool

	substName string
	subst     bool
}

// Arena owns every node of the trees built on it. Nodes live in fixed-size
// blocks; the block directory grows by appending, so existing nodes never move.
// All unused slots are threaded into one free list.
type Arena struct {
	blocks    [][]node
	blockSize int
	limit     int
	free      NodeID
	live      int
	capacity  int
}

// ArenaOption configures an Arena.
type ArenaOption func(*Arena)

// WithBlockSize sets the number of slots per container.
func WithBlockSize(n int) ArenaOption { return func(a *Arena) { a.blockSize = n } }

// WithNodeLimit caps the number of simultaneously live nodes. Zero means no cap.
// Exceeding the cap makes Alloc fail with ErrOutOfMemory.
func WithNodeLimit(n int) ArenaOption { return func(a *Arena) { a.limit = n } }

func NewArena(opts ...ArenaOption) *Arena {
	a := &Arena{blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(a)
	}
	if a.blockSize < 2 {
		a.blockSize = 2
	}
	return a
}

func (a *Arena) Live() int   { return a.live }
func (a *Arena) Cap() int    { return a.capacity }
func (a *Arena) Blocks() int { return len(a.blocks) }

func (a *Arena) at(id NodeID) *node {
	return &a.blocks[int(id)/a.blockSize][int(id)%a.blockSize]
}

func (a *Arena) valid(id NodeID) bool {
	if id == NilNode || int(id) >= len(a.blocks)*a.blockSize {
		return false
	}
	return !a.at(id).free
}

// grow appends one container and pushes its slots on the free list.
func (a *Arena) grow() {
	start := NodeID(len(a.blocks) * a.blockSize)
	block := make([]node, a.blockSize)
	a.blocks = append(a.blocks, block)
	first := 0
	if start == 0 {
		first = 1
	}
	for i := len(block) - 1; i >= first; i-- {
		block[i].free = true
		block[i].left = a.free
		a.free = start + NodeID(i)
	}
	a.capacity += len(block) - first
}

// Alloc pops a zeroed node off the free list, growing by one container when the
// list is empty.
func (a *Arena) Alloc() (NodeID, error) {
	if a.limit > 0 && a.live >= a.limit {
		return NilNode, fmt.Errorf("%w: node limit %d reached", ErrOutOfMemory, a.limit)
	}
	if a.free == NilNode {
		a.grow()
	}
	id := a.free
	n := a.at(id)
	a.free = n.left
	*n = node{}
	a.live++
	return id, nil
}

// Free returns one node to the pool. Its children are not touched.
func (a *Arena) Free(id NodeID) {
	if id == NilNode {
		panic("gosymdiff: free of nil node")
	}
	n := a.at(id)
	if n.free {
		panic(fmt.Sprintf("gosymdiff: double free of node %d", id))
	}
	*n = node{free: true, left: a.free}
	a.free = id
	a.live--
}

// FreeSubtree returns id and everything below it to the pool.
func (a *Arena) FreeSubtree(id NodeID) {
	if id == NilNode {
		return
	}
	stack := arraystack.New()
	stack.Push(id)
	for !stack.Empty() {
		v, _ := stack.Pop()
		cur := v.(NodeID)
		n := a.at(cur)
		if n.left != NilNode {
			stack.Push(n.left)
		}
		if n.right != NilNode {
			stack.Push(n.right)
		}
		a.Free(cur)
	}
}

func (a *Arena) newNumber(v float64) (NodeID, error) {
	id, err := a.Alloc()
	if err != nil {
		return NilNode, err
	}
	n := a.at(id)
	n.kind = KindNumber
	n.num = v
	return id, nil
}

func (a *Arena) newVariable(idx int) (NodeID, error) {
	id, err := a.Alloc()
	if err != nil {
		return NilNode, err
	}
	n := a.at(id)
	n.kind = KindVariable
	n.varIdx = idx
	return id, nil
}

func (a *Arena) newOperation(op Op, left, right NodeID) (NodeID, error) {
	id, err := a.Alloc()
	if err != nil {
		return NilNode, err
	}
	n := a.at(id)
	n.kind = KindOperation
	n.op = op
	n.left = left
	n.right = right
	return id, nil
}

// copySubtree deep-copies id. On failure the partial copy is released.
func (a *Arena) copySubtree(id NodeID) (NodeID, error) {
	if id == NilNode {
		return NilNode, nil
	}
	src := *a.at(id)
	left, err := a.copySubtree(src.left)
	if err != nil {
		return NilNode, err
	}
	right, err := a.copySubtree(src.right)
	if err != nil {
		a.FreeSubtree(left)
		return NilNode, err
	}
	dst, err := a.Alloc()
	if err != nil {
		a.FreeSubtree(left)
		a.FreeSubtree(right)
		return NilNode, err
	}
	n := a.at(dst)
	n.kind = src.kind
	n.op = src.op
	n.num = src.num
	n.varIdx = src.varIdx
	n.left = left
	n.right = right
	return dst, nil
}

// ============================================================
// Builder
// ============================================================

// builder allocates nodes for one construction (a parse, a derivative) and
// remembers every node it made, so a failed construction can be rolled back
// without leaving anything reachable.
type builder struct {
	arena *Arena
	made  []NodeID
	err   error
}

func newBuilder(a *Arena) *builder { return &builder{arena: a} }

func (b *builder) fail(err error) NodeID {
	if b.err == nil {
		b.err = err
	}
	return NilNode
}

func (b *builder) track(id NodeID, err error) NodeID {
	if err != nil {
		return b.fail(err)
	}
	b.made = append(b.made, id)
	return id
}

func (b *builder) num(v float64) NodeID {
	if b.err != nil {
		return NilNode
	}
	return b.track(b.arena.newNumber(v))
}

func (b *builder) variable(idx int) NodeID {
	if b.err != nil {
		return NilNode
	}
	return b.track(b.arena.newVariable(idx))
}

func (b *builder) op(op Op, left, right NodeID) NodeID {
	if b.err != nil {
		return NilNode
	}
	return b.track(b.arena.newOperation(op, left, right))
}

func (b *builder) unary(op Op, arg NodeID) NodeID { return b.op(op, NilNode, arg) }

// copy deep-copies a subtree node by node so every copy is tracked.
func (b *builder) copy(id NodeID) NodeID {
	if b.err != nil || id == NilNode {
		return NilNode
	}
	src := *b.arena.at(id)
	switch src.kind {
	case KindNumber:
		return b.num(src.num)
	case KindVariable:
		return b.variable(src.varIdx)
	case KindOperation:
		left := b.copy(src.left)
		right := b.copy(src.right)
		return b.op(src.op, left, right)
	}
	return b.fail(fmt.Errorf("%w: kind %d at node %d", ErrUnknownNodeType, src.kind, id))
}

// rollback frees every node made so far.
func (b *builder) rollback() {
	for _, id := range b.made {
		b.arena.Free(id)
	}
	b.made = nil
}
