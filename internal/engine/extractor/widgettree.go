package extractor

import "dartbridge/internal/engine/ir"

// buildTrees inspects a build body for its return expressions and
// reconstructs component trees. A direct instance-creation return yields one
// tree; a conditional return yields a primary tree (first branch) plus
// alternatives and sets the conditional note.
func buildTrees(body []ir.Stmt) (primary *ir.WidgetNode, alternatives []*ir.WidgetNode, conditional bool) {
	ret := firstReturn(body)
	if ret == nil || ret.Value == nil {
		return nil, nil, false
	}

	switch v := ret.Value.(type) {
	case *ir.InstanceCreation:
		return widgetNode(v), nil, false
	case *ir.Conditional:
		var trees []*ir.WidgetNode
		for _, branch := range []ir.Expr{v.Then, v.Else} {
			if creation, ok := branch.(*ir.InstanceCreation); ok {
				trees = append(trees, widgetNode(creation))
			}
		}
		if len(trees) == 0 {
			return nil, nil, true
		}
		return trees[0], trees[1:], true
	default:
		return nil, nil, false
	}
}

func firstReturn(body []ir.Stmt) *ir.Return {
	for _, s := range body {
		switch st := s.(type) {
		case *ir.Return:
			return st
		case *ir.Block:
			if ret := firstReturn(st.Body); ret != nil {
				return ret
			}
		}
	}
	return nil
}

// widgetNode recursively interprets `child` and `children` named arguments
// as nested component nodes. Every other argument is kept verbatim.
func widgetNode(creation *ir.InstanceCreation) *ir.WidgetNode {
	node := &ir.WidgetNode{TypeName: creation.TypeName}

	for _, arg := range creation.Args {
		switch arg.Name {
		case "child":
			if nested, ok := arg.Value.(*ir.InstanceCreation); ok {
				node.Children = append(node.Children, widgetNode(nested))
				continue
			}
			node.Args = append(node.Args, arg)
		case "children":
			list, ok := arg.Value.(*ir.ListLiteral)
			if !ok {
				node.Args = append(node.Args, arg)
				continue
			}
			for _, el := range list.Elements {
				if nested, ok := el.(*ir.InstanceCreation); ok {
					node.Children = append(node.Children, widgetNode(nested))
				}
			}
		default:
			node.Args = append(node.Args, arg)
		}
	}

	return node
}

// firstInstanceCreation descends into a body and returns the type name of
// the first instance-creation expression, or "". Used to read the state
// binding out of createState.
func firstInstanceCreation(body []ir.Stmt) string {
	for _, s := range body {
		if name := creationInStmt(s); name != "" {
			return name
		}
	}
	return ""
}

func creationInStmt(s ir.Stmt) string {
	switch st := s.(type) {
	case *ir.Return:
		return creationInExpr(st.Value)
	case *ir.ExprStmt:
		return creationInExpr(st.Expr)
	case *ir.Block:
		return firstInstanceCreation(st.Body)
	default:
		return ""
	}
}

func creationInExpr(e ir.Expr) string {
	if creation, ok := e.(*ir.InstanceCreation); ok {
		return creation.TypeName
	}
	return ""
}
