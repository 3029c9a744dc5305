// Package threads 把文章的扁平评论整理成回复森林。
package threads

import (
	"cmp"
	"slices"

	"newsroom/internal/models"
)

// Node 评论及其按时间排序的回复
type Node struct {
	Comment models.Comment `json:"comment"`
	Replies []*Node        `json:"replies"`
}

// Organize 纯函数，不做 I/O。
// 每一层都按 (created_at, id) 升序，结果与输入顺序无关；
// 父评论不存在（或并不早于自身）的评论作为孤儿挂到根上，不会丢失。
func Organize(comments []models.Comment) []*Node {
	index := make(map[uint]*Node, len(comments))
	nodes := make([]*Node, 0, len(comments))
	for _, c := range comments {
		if _, dup := index[c.ID]; dup {
			continue
		}
		n := &Node{Comment: c, Replies: []*Node{}}
		index[c.ID] = n
		nodes = append(nodes, n)
	}

	slices.SortFunc(nodes, compareNodes)

	roots := make([]*Node, 0)
	for _, n := range nodes {
		parent := parentOf(n, index)
		if parent == nil {
			roots = append(roots, n)
			continue
		}
		// nodes 已排序，追加后各层自然有序
		parent.Replies = append(parent.Replies, n)
	}
	return roots
}

// parentOf 只接受排在自身之前的父节点，从而保证无环
func parentOf(n *Node, index map[uint]*Node) *Node {
	if n.Comment.ParentID == nil {
		return nil
	}
	parent, ok := index[*n.Comment.ParentID]
	if !ok || compareNodes(parent, n) >= 0 {
		return nil
	}
	return parent
}

func compareNodes(a, b *Node) int {
	if c := a.Comment.CreatedAt.Compare(b.Comment.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.Comment.ID, b.Comment.ID)
}

// Count 森林中的节点总数
func Count(forest []*Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + Count(n.Replies)
	}
	return total
}

// Walk 深度优先遍历，depth 从 0 开始
func Walk(forest []*Node, fn func(n *Node, depth int)) {
	var walk func([]*Node, int)
	walk = func(level []*Node, depth int) {
		for _, n := range level {
			fn(n, depth)
			walk(n.Replies, depth+1)
		}
	}
	walk(forest, 0)
}

// IDs 森林中所有评论 ID，深度优先顺序
func IDs(forest []*Node) []uint {
	ids := make([]uint, 0, Count(forest))
	Walk(forest, func(n *Node, _ int) {
		ids = append(ids, n.Comment.ID)
	})
	return ids
}
