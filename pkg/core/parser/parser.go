// Package parser 从LLM生成的Python工作流代码中静态提取WorkflowDAG
//
// 解析器只做语法树上的模式匹配，绝不执行生成的代码（沙箱约束）：
// 识别词汇表限定为 WorkflowDAG() 构造、WorkflowNode(...) 构造以及
// <builder>.add_node / <builder>.add_edge 两个方法调用，参数仅接受字面量。
// 词汇表之外的相关语句一律报错拒绝，而非静默跳过。
package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/LENAX/plan-engine/pkg/core/workflow"
)

const (
	builderTypeName = "WorkflowDAG"
	nodeTypeName    = "WorkflowNode"
)

// CheckSyntax 对候选源码做纯语法检查（对外导出）
// 只确认源码是合法的Python程序，与识别词汇表无关
// 语法错误时返回FailureSyntax类别的ExtractError并标注首个出错位置
func CheckSyntax(ctx context.Context, source string) error {
	tree, err := parseSource(ctx, source)
	if err != nil {
		return err
	}
	defer tree.Close()

	return checkTreeSyntax(tree)
}

// ExtractWorkflow 从源码静态提取WorkflowDAG（对外导出）
// 两趟遍历：第一趟登记builder别名与节点别名，第二趟应用add_node并
// 收集add_edge，待全部节点就绪后统一应用边（边与节点声明顺序无关）
// 提取是全有或全无的：任何失败都不返回部分构建的图
func ExtractWorkflow(ctx context.Context, source string) (*workflow.WorkflowDAG, error) {
	tree, err := parseSource(ctx, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if err := checkTreeSyntax(tree); err != nil {
		return nil, err
	}

	src := []byte(source)
	root := tree.RootNode()

	// 第一趟：登记builder别名和节点别名（均为限定在单次提取内的符号表）
	builderAliases := make(map[string]bool)
	nodeAliases := make(map[string]*workflow.WorkflowNode)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		assign := topLevelAssignment(root.NamedChild(i))
		if assign == nil {
			continue
		}
		left := assign.ChildByFieldName("left")
		right := assign.ChildByFieldName("right")
		if left == nil || right == nil || left.Type() != "identifier" || right.Type() != "call" {
			continue
		}

		fn := right.ChildByFieldName("function")
		if fn == nil || fn.Type() != "identifier" {
			continue
		}

		alias := left.Content(src)
		switch fn.Content(src) {
		case builderTypeName:
			if countPositionalArgs(right) > 0 || countKeywordArgs(right) > 0 {
				return nil, newExtractError(FailureUnrecognizedCall,
					fmt.Sprintf("line %d: %s() takes no arguments", right.StartPoint().Row+1, builderTypeName))
			}
			builderAliases[alias] = true
		case nodeTypeName:
			node, err := parseNodeCall(right, src, alias)
			if err != nil {
				return nil, err
			}
			nodeAliases[alias] = node
		}
	}

	if len(builderAliases) == 0 {
		return nil, newExtractError(FailureMissingBuilder,
			fmt.Sprintf("No %s instance found in the provided code", builderTypeName))
	}

	// 第二趟：按语句顺序应用add_node，add_edge先入队
	dag := workflow.NewWorkflowDAG()
	type pendingEdge struct {
		source string
		target string
	}
	edges := make([]pendingEdge, 0)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		call := topLevelCall(root.NamedChild(i))
		if call == nil {
			continue
		}

		fn := call.ChildByFieldName("function")
		if fn == nil || fn.Type() != "attribute" {
			continue
		}
		object := fn.ChildByFieldName("object")
		attribute := fn.ChildByFieldName("attribute")
		if object == nil || attribute == nil || object.Type() != "identifier" {
			continue
		}
		if !builderAliases[object.Content(src)] {
			continue
		}

		line := call.StartPoint().Row + 1
		switch attribute.Content(src) {
		case "add_node":
			node, err := parseAddNodeArg(call, src, nodeAliases)
			if err != nil {
				return nil, err
			}
			if err := dag.AddNode(node); err != nil {
				return nil, err
			}
		case "add_edge":
			source, target, err := parseAddEdgeArgs(call, src)
			if err != nil {
				return nil, err
			}
			edges = append(edges, pendingEdge{source: source, target: target})
		default:
			return nil, newExtractError(FailureUnrecognizedCall,
				fmt.Sprintf("line %d: unsupported method '%s' on %s; only add_node and add_edge are recognized",
					line, attribute.Content(src), builderTypeName))
		}
	}

	// 节点集完整后统一应用边
	for _, edge := range edges {
		if err := dag.AddEdge(edge.source, edge.target); err != nil {
			return nil, err
		}
	}

	return dag, nil
}

// parseSource 解析源码为语法树
func parseSource(ctx context.Context, source string) (*sitter.Tree, error) {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, []byte(source))
	if err != nil {
		return nil, fmt.Errorf("解析源码失败: %w", err)
	}
	return tree, nil
}

// checkTreeSyntax 检查语法树中的ERROR/MISSING节点
func checkTreeSyntax(tree *sitter.Tree) error {
	root := tree.RootNode()
	if root == nil {
		return newExtractError(FailureSyntax, "invalid Python source: empty syntax tree")
	}
	if !root.HasError() {
		return nil
	}

	if bad := firstErrorNode(root); bad != nil {
		return newExtractError(FailureSyntax,
			fmt.Sprintf("invalid Python source: syntax error near line %d, column %d",
				bad.StartPoint().Row+1, bad.StartPoint().Column+1))
	}
	return newExtractError(FailureSyntax, "invalid Python source: syntax error")
}

// firstErrorNode 深度优先寻找首个错误节点
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

// topLevelAssignment 匹配顶层赋值语句，返回assignment节点
func topLevelAssignment(stmt *sitter.Node) *sitter.Node {
	if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
		return nil
	}
	inner := stmt.NamedChild(0)
	if inner.Type() != "assignment" {
		return nil
	}
	return inner
}

// topLevelCall 匹配顶层表达式语句或赋值语句中的调用
func topLevelCall(stmt *sitter.Node) *sitter.Node {
	if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
		return nil
	}
	inner := stmt.NamedChild(0)
	switch inner.Type() {
	case "call":
		return inner
	case "assignment":
		right := inner.ChildByFieldName("right")
		if right != nil && right.Type() == "call" {
			return right
		}
	}
	return nil
}

// positionalArgs 返回调用的位置参数节点列表
func positionalArgs(call *sitter.Node) []*sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	result := make([]*sitter.Node, 0, args.NamedChildCount())
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "keyword_argument" || child.Type() == "comment" {
			continue
		}
		result = append(result, child)
	}
	return result
}

// keywordArgs 返回调用的关键字参数节点列表
func keywordArgs(call *sitter.Node) []*sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	result := make([]*sitter.Node, 0)
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "keyword_argument" {
			result = append(result, child)
		}
	}
	return result
}

func countPositionalArgs(call *sitter.Node) int { return len(positionalArgs(call)) }
func countKeywordArgs(call *sitter.Node) int    { return len(keywordArgs(call)) }

// parseNodeCall 解析WorkflowNode(...)构造
// 位置参数依次为name/action/params，关键字参数可覆盖
// defaultName为别名赋值目标名，name缺省时生效；action缺省时等于name
func parseNodeCall(call *sitter.Node, src []byte, defaultName string) (*workflow.WorkflowNode, error) {
	line := call.StartPoint().Row + 1

	var name, action interface{}
	params := make(map[string]interface{})
	haveName, haveAction := false, false

	positional := positionalArgs(call)
	if len(positional) > 3 {
		return nil, newExtractError(FailureUnrecognizedCall,
			fmt.Sprintf("line %d: %s takes at most 3 positional arguments (name, action, params), got %d",
				line, nodeTypeName, len(positional)))
	}

	for i, arg := range positional {
		switch i {
		case 0:
			value, err := evalLiteral(arg, src, "node name")
			if err != nil {
				return nil, err
			}
			name, haveName = value, true
		case 1:
			value, err := evalLiteral(arg, src, "node action")
			if err != nil {
				return nil, err
			}
			action, haveAction = value, true
		case 2:
			value, err := evalLiteral(arg, src, "node params")
			if err != nil {
				return nil, err
			}
			mapping, ok := value.(map[string]interface{})
			if !ok {
				return nil, newExtractError(FailureUnrecognizedCall,
					fmt.Sprintf("line %d: %s params must be a dictionary", line, nodeTypeName))
			}
			params = mapping
		}
	}

	for _, kw := range keywordArgs(call) {
		keyNode := kw.ChildByFieldName("name")
		valueNode := kw.ChildByFieldName("value")
		if keyNode == nil || valueNode == nil {
			return nil, newExtractError(FailureUnrecognizedCall,
				fmt.Sprintf("line %d: malformed keyword argument in %s call", line, nodeTypeName))
		}

		switch keyNode.Content(src) {
		case "name":
			value, err := evalLiteral(valueNode, src, "node name")
			if err != nil {
				return nil, err
			}
			name, haveName = value, true
		case "action":
			value, err := evalLiteral(valueNode, src, "node action")
			if err != nil {
				return nil, err
			}
			action, haveAction = value, true
		case "params":
			value, err := evalLiteral(valueNode, src, "node params")
			if err != nil {
				return nil, err
			}
			mapping, ok := value.(map[string]interface{})
			if !ok {
				return nil, newExtractError(FailureUnrecognizedCall,
					fmt.Sprintf("line %d: %s params must be a dictionary", line, nodeTypeName))
			}
			params = mapping
		default:
			return nil, newExtractError(FailureUnrecognizedCall,
				fmt.Sprintf("line %d: unknown keyword argument '%s' in %s call",
					line, keyNode.Content(src), nodeTypeName))
		}
	}

	nodeName := ""
	if haveName && name != nil {
		nodeName = coerceString(name)
	} else if defaultName != "" {
		// name缺省时由别名赋值目标名补齐
		nodeName = defaultName
	}

	nodeAction := ""
	if haveAction && action != nil {
		nodeAction = coerceString(action)
	} else if nodeName != "" {
		// action缺省时默认等于节点名，容忍只给name的极简声明
		nodeAction = nodeName
	}

	missing := make([]string, 0, 2)
	if nodeName == "" {
		missing = append(missing, "name")
	}
	if nodeAction == "" {
		missing = append(missing, "action")
	}
	if len(missing) > 0 {
		return nil, newExtractError(FailureUnrecognizedCall,
			fmt.Sprintf("line %d: %s requires values for: %s", line, nodeTypeName, joinComma(missing)))
	}

	return workflow.NewWorkflowNode(nodeName, nodeAction, params), nil
}

// parseAddNodeArg 解析add_node的参数
// 仅接受内联WorkflowNode构造或已登记的节点别名
func parseAddNodeArg(call *sitter.Node, src []byte, nodeAliases map[string]*workflow.WorkflowNode) (*workflow.WorkflowNode, error) {
	line := call.StartPoint().Row + 1
	positional := positionalArgs(call)
	if len(positional) == 0 {
		return nil, newExtractError(FailureUnrecognizedCall,
			fmt.Sprintf("line %d: add_node must receive a %s instance", line, nodeTypeName))
	}
	if len(positional) > 1 || countKeywordArgs(call) > 0 {
		return nil, newExtractError(FailureUnrecognizedCall,
			fmt.Sprintf("line %d: add_node takes exactly one %s argument", line, nodeTypeName))
	}

	arg := positional[0]
	switch arg.Type() {
	case "call":
		fn := arg.ChildByFieldName("function")
		if fn == nil || fn.Type() != "identifier" || fn.Content(src) != nodeTypeName {
			return nil, newExtractError(FailureUnrecognizedCall,
				fmt.Sprintf("line %d: add_node must wrap a %s construction", line, nodeTypeName))
		}
		return parseNodeCall(arg, src, "")
	case "identifier":
		alias := arg.Content(src)
		if node, ok := nodeAliases[alias]; ok {
			return node, nil
		}
	}
	return nil, newExtractError(FailureUnrecognizedCall,
		fmt.Sprintf("line %d: add_node expects a %s constructor call or named instance", line, nodeTypeName))
}

// parseAddEdgeArgs 解析add_edge的两个端点字面量
// 端点按Python str()语义降级为字符串
func parseAddEdgeArgs(call *sitter.Node, src []byte) (string, string, error) {
	line := call.StartPoint().Row + 1
	positional := positionalArgs(call)
	if len(positional) < 2 {
		return "", "", newExtractError(FailureUnrecognizedCall,
			fmt.Sprintf("line %d: add_edge requires source and target node names", line))
	}
	if len(positional) > 2 || countKeywordArgs(call) > 0 {
		return "", "", newExtractError(FailureUnrecognizedCall,
			fmt.Sprintf("line %d: add_edge takes exactly two arguments (source, target)", line))
	}

	source, err := evalLiteral(positional[0], src, "edge source")
	if err != nil {
		return "", "", err
	}
	target, err := evalLiteral(positional[1], src, "edge target")
	if err != nil {
		return "", "", err
	}
	return coerceString(source), coerceString(target), nil
}

// joinComma 逗号连接
func joinComma(items []string) string {
	result := ""
	for i, item := range items {
		if i > 0 {
			result += ", "
		}
		result += item
	}
	return result
}
