package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Tanya931151/mental-scope/internal/models"
)

// FlowNode is one node of an externally authored flow graph. When Tag is
// set and the catalogue has entries for it, the displayed message is drawn
// from the catalogue instead of the literal message.
type FlowNode struct {
	Message string          `json:"message"`
	Options []models.Option `json:"options,omitempty"`
	Tag     string          `json:"tag,omitempty"`
}

// FlowGraph is a directed graph of dialogue nodes traversed by exact
// option-label matching. Immutable after load.
type FlowGraph struct {
	nodes map[models.NodeID]FlowNode
}

// LoadFlowGraph parses a flow graph document. A graph without a start node
// is a configuration error.
func LoadFlowGraph(graphJSON []byte) (*FlowGraph, error) {
	var nodes map[models.NodeID]FlowNode
	if err := json.Unmarshal(graphJSON, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse flow graph: %w", err)
	}
	if _, ok := nodes[models.NodeStart]; !ok {
		return nil, fmt.Errorf("flow graph has no %q node", models.NodeStart)
	}
	for id, node := range nodes {
		for _, opt := range node.Options {
			if _, ok := nodes[opt.Next]; !ok {
				slog.Warn("FlowGraph.LoadFlowGraph: option points at unknown node, traversal will reset to start",
					"node", id, "label", opt.Label, "next", opt.Next)
			}
		}
	}
	slog.Debug("FlowGraph.LoadFlowGraph: graph loaded", "nodes", len(nodes))
	return &FlowGraph{nodes: nodes}, nil
}

// Node returns the node for id.
func (g *FlowGraph) Node(id models.NodeID) (FlowNode, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// Start returns the canonical start node.
func (g *FlowGraph) Start() FlowNode {
	return g.nodes[models.NodeStart]
}

// Match compares the input against the node's option labels after symbol
// stripping and lowercasing on both sides. First exact match wins. The
// second return is false when no option matches.
func (g *FlowGraph) Match(node FlowNode, input string) (models.NodeID, bool) {
	cleaned := stripSymbols(Lower(input))
	for _, opt := range node.Options {
		if stripSymbols(Lower(opt.Label)) == cleaned {
			return opt.Next, true
		}
	}
	return "", false
}

// traverseGraph advances the session along the flow graph. On a label match
// it transitions to the option's target (resetting to start if the target
// is missing) and renders that node; on a miss it reports false so the
// caller can fall through to the intent fallback.
func (e *Engine) traverseGraph(st *models.SessionState, input string) (string, []models.Option, bool) {
	current := st.Expecting
	node, ok := e.graph.Node(current)
	if !ok {
		// Unknown or empty node ids are interpreted against the start node.
		current = models.NodeStart
		node = e.graph.Start()
	}

	next, matched := e.graph.Match(node, input)
	if !matched {
		slog.Debug("Engine.traverseGraph: no option matched", "node", current)
		return "", nil, false
	}

	nextNode, ok := e.graph.Node(next)
	if !ok {
		slog.Warn("Engine.traverseGraph: matched option targets unknown node, resetting to start", "node", current, "next", next)
		next = models.NodeStart
		nextNode = e.graph.Start()
	}
	st.Expecting = next

	reply := nextNode.Message
	if nextNode.Tag != "" && e.catalogue.HasResponses(nextNode.Tag) {
		reply = e.catalogue.Pick(nextNode.Tag, nextNode.Message, e.intn)
	}
	slog.Debug("Engine.traverseGraph: transition", "from", current, "to", next)
	return reply, nextNode.Options, true
}
