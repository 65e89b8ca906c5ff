// Package idgen 提供基于 snowflake 的全局唯一 ID 生成器
package idgen

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	once sync.Once
	node *snowflake.Node
)

// Init 以指定节点号初始化生成器，未调用时默认节点号 1
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// GenID 生成一个全局唯一 ID
func GenID() int64 {
	if node == nil {
		_ = Init(1)
	}
	return node.Generate().Int64()
}
