package parser

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// evalLiteral 对语法树节点做字面量求值
// 仅接受常量表达式：字符串/数字/布尔/None/列表/字典（递归）
// 裸标识符按其拼写降级为字符串字面量（容忍LLM漏写引号的宽松回退）
// 其余表达式（运算、函数调用、推导式等）返回NonLiteral错误
func evalLiteral(node *sitter.Node, source []byte, label string) (interface{}, error) {
	switch node.Type() {
	case "string":
		// f-string插值不是常量表达式
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if node.NamedChild(i).Type() == "interpolation" {
				return nil, newExtractError(FailureNonLiteral,
					fmt.Sprintf("unable to evaluate %s from workflow code: f-string interpolation is not a literal", label))
			}
		}
		return unquoteString(node.Content(source))
	case "integer":
		text := node.Content(source)
		value, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64)
		if err != nil {
			return nil, newExtractError(FailureNonLiteral,
				fmt.Sprintf("unable to evaluate %s from workflow code: invalid integer %q", label, text))
		}
		return int(value), nil
	case "float":
		text := node.Content(source)
		value, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil {
			return nil, newExtractError(FailureNonLiteral,
				fmt.Sprintf("unable to evaluate %s from workflow code: invalid float %q", label, text))
		}
		return value, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "none":
		return nil, nil
	case "unary_operator":
		return evalUnary(node, source, label)
	case "list", "tuple":
		items := make([]interface{}, 0, node.NamedChildCount())
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			value, err := evalLiteral(child, source, label)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}
		return items, nil
	case "dictionary":
		return evalDictionary(node, source, label)
	case "parenthesized_expression":
		if node.NamedChildCount() == 0 {
			return nil, newExtractError(FailureNonLiteral,
				fmt.Sprintf("unable to evaluate %s from workflow code: empty parentheses", label))
		}
		return evalLiteral(node.NamedChild(0), source, label)
	case "identifier":
		// 未识别的裸标识符视作其自身拼写的字符串
		return node.Content(source), nil
	default:
		return nil, newExtractError(FailureNonLiteral,
			fmt.Sprintf("unable to evaluate %s from workflow code: line %d contains a non-literal expression (%s)",
				label, node.StartPoint().Row+1, node.Type()))
	}
}

// evalUnary 处理正负号数字字面量（如 -1、+2.5）
func evalUnary(node *sitter.Node, source []byte, label string) (interface{}, error) {
	operand := node.ChildByFieldName("argument")
	if operand == nil {
		return nil, newExtractError(FailureNonLiteral,
			fmt.Sprintf("unable to evaluate %s from workflow code: malformed unary expression", label))
	}

	value, err := evalLiteral(operand, source, label)
	if err != nil {
		return nil, err
	}

	operator := strings.TrimSpace(strings.TrimSuffix(node.Content(source), operand.Content(source)))
	switch operator {
	case "+":
		return value, nil
	case "-":
		switch num := value.(type) {
		case int:
			return -num, nil
		case float64:
			return -num, nil
		}
	}
	return nil, newExtractError(FailureNonLiteral,
		fmt.Sprintf("unable to evaluate %s from workflow code: unary operator applied to non-numeric value", label))
}

// evalDictionary 求值字典字面量，key必须可降级为字符串
func evalDictionary(node *sitter.Node, source []byte, label string) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	for i := 0; i < int(node.NamedChildCount()); i++ {
		pair := node.NamedChild(i)
		if pair.Type() == "comment" {
			continue
		}
		if pair.Type() != "pair" {
			return nil, newExtractError(FailureNonLiteral,
				fmt.Sprintf("unable to evaluate %s from workflow code: dictionary contains non-literal entry (%s)",
					label, pair.Type()))
		}

		keyNode := pair.ChildByFieldName("key")
		valueNode := pair.ChildByFieldName("value")
		if keyNode == nil || valueNode == nil {
			return nil, newExtractError(FailureNonLiteral,
				fmt.Sprintf("unable to evaluate %s from workflow code: malformed dictionary entry", label))
		}

		key, err := evalLiteral(keyNode, source, label)
		if err != nil {
			return nil, err
		}
		value, err := evalLiteral(valueNode, source, label)
		if err != nil {
			return nil, err
		}
		result[coerceString(key)] = value
	}
	return result, nil
}

// unquoteString 去除Python字符串字面量的引号和前缀并处理常见转义
func unquoteString(text string) (interface{}, error) {
	raw := false
	// 跳过字符串前缀（r/b/u及其组合），f-string含插值不会进入此分支
	for len(text) > 0 && text[0] != '\'' && text[0] != '"' {
		if text[0] == 'r' || text[0] == 'R' {
			raw = true
		}
		text = text[1:]
	}
	if len(text) < 2 {
		return "", nil
	}

	for _, quote := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, quote) && strings.HasSuffix(text, quote) && len(text) >= 2*len(quote) {
			inner := text[len(quote) : len(text)-len(quote)]
			if raw {
				return inner, nil
			}
			return unescapeString(inner), nil
		}
	}
	return text, nil
}

// unescapeString 处理常见的转义序列
func unescapeString(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\', '\'', '"':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// coerceString 将字面量值按Python str()语义降级为字符串
// 用于节点name/action和边端点
func coerceString(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return "None"
	case string:
		return value
	case bool:
		if value {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(value)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}
