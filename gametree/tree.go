// Package gametree implements the per-side search tree of a self-play game:
// an arena of nodes addressed by handle, rooted at a game-begin node, with a
// current-head pointer marking the live position. Each node owns its child
// handles and keeps a parent handle used only for root-ward reconstruction.
// Per-edge visit counts, the only search statistic the driver needs, are
// stored on the child node of the edge.
package gametree

import (
	"fmt"
	"sync"

	"github.com/notnil/chess"
)

// NodeID is a handle into the tree's node arena.
type NodeID int32

// NoNode is the parent handle of the game-begin node.
const NoNode NodeID = -1

// Node is one position in the tree. Move is the edge from Parent that leads
// here, in absolute board coordinates.
type Node struct {
	Parent   NodeID
	Move     *chess.Move
	Children []NodeID
	Visits   uint32
}

// Edge describes one outgoing edge of the head node.
type Edge struct {
	Child NodeID
	Move  *chess.Move
	N     uint32
}

// Tree is a game tree over a notnil/chess game. The embedded game carries
// the position history; the arena carries the search graph. Visit counters
// are guarded by the tree mutex since search workers update them
// concurrently; structural mutation (MakeMove, TrimAtHead, Reset) only ever
// happens from the single driving goroutine.
type Tree struct {
	mu       sync.Mutex
	nodes    []Node
	root     NodeID
	head     NodeID
	startFEN string
	game     *chess.Game
}

// StartFENStandard is the standard chess starting position.
const StartFENStandard = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// New returns a tree at the standard starting position.
func New() *Tree {
	t := &Tree{}
	if err := t.ResetToPosition(StartFENStandard, nil); err != nil {
		panic(err)
	}
	return t
}

// ResetToPosition discards the whole tree and rebuilds it from a FEN plus a
// move prefix.
func (t *Tree) ResetToPosition(fen string, moves []*chess.Move) error {
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return fmt.Errorf("resetting tree to %q: %w", fen, err)
	}
	t.game = chess.NewGame(fenOpt, chess.UseNotation(chess.UCINotation{}))
	t.startFEN = fen
	t.nodes = t.nodes[:0]
	t.nodes = append(t.nodes, Node{Parent: NoNode})
	t.root = 0
	t.head = 0
	for _, m := range moves {
		if err := t.MakeMove(m); err != nil {
			return err
		}
	}
	return nil
}

// MakeMove commits a move at the head: it descends to the matching child if
// the edge already exists (keeping its statistics for tree reuse), otherwise
// appends a fresh node.
func (t *Tree) MakeMove(m *chess.Move) error {
	// Re-decode on our own position so a move object produced against a
	// twin tree is accepted.
	decoded, err := chess.UCINotation{}.Decode(t.game.Position(), m.String())
	if err != nil {
		return fmt.Errorf("decoding move %s: %w", m, err)
	}
	if err := t.game.Move(decoded); err != nil {
		return fmt.Errorf("committing move %s: %w", m, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, child := range t.nodes[t.head].Children {
		if t.nodes[child].Move.String() == decoded.String() {
			t.head = child
			return nil
		}
	}
	t.nodes = append(t.nodes, Node{Parent: t.head, Move: decoded})
	child := NodeID(len(t.nodes) - 1)
	t.nodes[t.head].Children = append(t.nodes[t.head].Children, child)
	t.head = child
	return nil
}

// TrimAtHead discards the subtree below the current head, dropping all
// statistics accumulated by prior searches. Detached nodes stay in the arena
// until the next reset; games are short enough that compaction is not worth
// the bookkeeping.
func (t *Tree) TrimAtHead() {
	t.mu.Lock()
	t.nodes[t.head].Children = nil
	t.mu.Unlock()
}

// ExpandHead creates one child per legal move at the head, unless children
// already exist (tree reuse). It returns the head's child handles.
func (t *Tree) ExpandHead() []NodeID {
	pos := t.game.Position()
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.nodes[t.head].Children) == 0 {
		for _, m := range pos.ValidMoves() {
			t.nodes = append(t.nodes, Node{Parent: t.head, Move: m})
			child := NodeID(len(t.nodes) - 1)
			t.nodes[t.head].Children = append(t.nodes[t.head].Children, child)
		}
	}
	children := make([]NodeID, len(t.nodes[t.head].Children))
	copy(children, t.nodes[t.head].Children)
	return children
}

// EdgesAtHead snapshots the head's outgoing edges and their visit counts.
func (t *Tree) EdgesAtHead() []Edge {
	t.mu.Lock()
	defer t.mu.Unlock()
	edges := make([]Edge, 0, len(t.nodes[t.head].Children))
	for _, child := range t.nodes[t.head].Children {
		edges = append(edges, Edge{Child: child, Move: t.nodes[child].Move, N: t.nodes[child].Visits})
	}
	return edges
}

// AddVisit increments the visit count of the edge leading to the node.
func (t *Tree) AddVisit(id NodeID) {
	t.mu.Lock()
	t.nodes[id].Visits++
	t.mu.Unlock()
}

// NodeAt returns a copy of the node for the handle.
func (t *Tree) NodeAt(id NodeID) Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.nodes[id]
	children := make([]NodeID, len(n.Children))
	copy(children, n.Children)
	n.Children = children
	return n
}

// CurrentHead returns the handle of the live position.
func (t *Tree) CurrentHead() NodeID { return t.head }

// GameBeginNode returns the handle of the root.
func (t *Tree) GameBeginNode() NodeID { return t.root }

// StartFEN returns the FEN the tree was reset to.
func (t *Tree) StartFEN() string { return t.startFEN }

// IsBlackToMove reports whether Black moves at the head.
func (t *Tree) IsBlackToMove() bool {
	return t.game.Position().Turn() == chess.Black
}

// HeadPosition returns the position at the current head.
func (t *Tree) HeadPosition() *chess.Position {
	return t.game.Position()
}

// History returns the position history from the game-begin position to the
// head, inclusive.
func (t *Tree) History() []*chess.Position {
	return t.game.Positions()
}

// PlyCount returns the number of committed moves since the start position.
func (t *Tree) PlyCount() int {
	return len(t.game.Moves())
}

// ComputeResult adjudicates the current position history.
func (t *Tree) ComputeResult() Result {
	return ResultOf(t.History())
}

// ResultAfter adjudicates the history that would result from committing the
// move at the head, without committing it.
func (t *Tree) ResultAfter(m *chess.Move) (Result, error) {
	pos := t.game.Position()
	decoded, err := chess.UCINotation{}.Decode(pos, m.String())
	if err != nil {
		return Undecided, fmt.Errorf("decoding move %s: %w", m, err)
	}
	next := pos.Update(decoded)
	history := t.game.Positions()
	projected := make([]*chess.Position, 0, len(history)+1)
	projected = append(projected, history...)
	projected = append(projected, next)
	return ResultOf(projected), nil
}
