package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixDiagram  = "diag"
	PrefixSnapshot = "snap"
	PrefixNode     = "node"
	PrefixEdge     = "edge"
	PrefixClient   = "client"
	PrefixOp       = "op"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewDiagramID() string  { return New(PrefixDiagram) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewNodeID() string     { return New(PrefixNode) }
func NewEdgeID() string     { return New(PrefixEdge) }
func NewClientID() string   { return New(PrefixClient) }
func NewOpID() string       { return New(PrefixOp) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
