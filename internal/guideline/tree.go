package guideline

// Node is one entry in the nested heading hierarchy.
type Node struct {
	Title    string  `json:"title"`
	Page     int     `json:"page"`
	Level    int     `json:"level"`
	Children []*Node `json:"children"`
}

// Tree nests a flat, ordered heading list by level.
func Tree(headings []Heading) []*Node {
	var root []*Node
	var stack []*Node

	for _, h := range headings {
		node := &Node{Title: h.Text, Page: h.Page, Level: h.Level, Children: []*Node{}}

		for len(stack) > 0 && stack[len(stack)-1].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		} else {
			root = append(root, node)
		}
		stack = append(stack, node)
	}
	return root
}
