package service

import "github.com/reaxo-dev/reaxo/internal/domain"

// BuildReplyTree converts a thread's flat post list into an ordered
// forest for nested rendering. Children keep the relative order of the
// input list, which the upstream returns oldest-first.
//
// A parentId that does not resolve within the supplied list (paginated
// fetches can truncate it) demotes the post to a root rather than
// raising an error. Self-references and longer parent cycles are treated
// the same way: the post that would close the cycle becomes a root. The
// upstream data is trusted but not schema-enforced against cycles.
func BuildReplyTree(posts []domain.Post) []*domain.ReplyNode {
	nodes := make(map[string]*domain.ReplyNode, len(posts))
	ordered := make([]*domain.ReplyNode, 0, len(posts))
	for i := range posts {
		node := &domain.ReplyNode{Post: posts[i], Children: []*domain.ReplyNode{}}
		nodes[posts[i].Id] = node
		ordered = append(ordered, node)
	}

	parentOf := make(map[string]string, len(posts))
	roots := []*domain.ReplyNode{}
	for _, node := range ordered {
		parentId := node.ParentId
		parent, known := nodes[parentId]
		if parentId == "" || !known || closesCycle(parentOf, node.Id, parentId) {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
		parentOf[node.Id] = parentId
	}
	return roots
}

// closesCycle walks the already-assigned ancestor chain of candidate and
// reports whether it passes through id.
func closesCycle(parentOf map[string]string, id, candidate string) bool {
	seen := map[string]struct{}{id: {}}
	for cur := candidate; cur != ""; cur = parentOf[cur] {
		if _, ok := seen[cur]; ok {
			return true
		}
		seen[cur] = struct{}{}
	}
	return false
}

// MaxRenderDepth bounds how deep reply chains are counted and rendered.
// Chains longer than this are almost always upstream data gone wrong.
const MaxRenderDepth = 50

// CountReplies returns the total number of posts in the forest, with
// descent capped at maxDepth as a defensive guard for rendering-style
// traversals. maxDepth <= 0 means no cap.
func CountReplies(roots []*domain.ReplyNode, maxDepth int) int {
	total := 0
	var walk func(nodes []*domain.ReplyNode, depth int)
	walk = func(nodes []*domain.ReplyNode, depth int) {
		if maxDepth > 0 && depth > maxDepth {
			return
		}
		for _, n := range nodes {
			total++
			walk(n.Children, depth+1)
		}
	}
	walk(roots, 1)
	return total
}
