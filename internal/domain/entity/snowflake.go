package entity

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// IDGenerator hands out snowflake ids as decimal strings.
type IDGenerator struct {
	node *snowflake.Node
}

func NewIDGenerator(node int64) (*IDGenerator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}
	return &IDGenerator{node: n}, nil
}

func (g *IDGenerator) Generate() string {
	return g.node.Generate().String()
}

func ParseID(id string) (snowflake.ID, error) {
	if id == "" {
		return 0, ErrIDIsRequired
	}
	sid, err := snowflake.ParseString(id)
	if err != nil {
		return 0, ErrInvalidID
	}
	return sid, nil
}
