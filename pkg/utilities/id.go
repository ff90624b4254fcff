package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NodeIDFromEnv reads the snowflake node id from SNOWFLAKE_NODE.
// It defaults to node 1 when unset or unparsable.
func NodeIDFromEnv() int64 {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	if nodeEnv == "" {
		return 1
	}
	nodeID, err := strconv.ParseInt(nodeEnv, 10, 64)
	if err != nil {
		return 1
	}
	return nodeID
}

// IDNode hands out snowflake ids from a single node so that ids generated
// within the same millisecond stay unique.
type IDNode struct {
	node *snowflake.Node
}

// NewIDNode initializes a snowflake node with the provided node id.
func NewIDNode(nodeID int64) (*IDNode, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &IDNode{node: node}, nil
}

// Next returns the next id as int64.
func (n *IDNode) Next() int64 {
	return n.node.Generate().Int64()
}
