package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

const orderNoPrefix = "ORD"

// Generator выдает уникальные номера заказов на основе snowflake. Безопасен для конкурентного использования.
type Generator struct {
	node *snowflake.Node
}

func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

func (g *Generator) NextOrderNo() string {
	return orderNoPrefix + g.node.Generate().String()
}
