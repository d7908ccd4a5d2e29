package steps

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// looksLikeHTML 粗略判断文本是否为HTML内容
func looksLikeHTML(text string) bool {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, tag := range []string{"<html", "<body", "<div", "<p", "<!doctype"} {
		if strings.HasPrefix(lower, tag) {
			return true
		}
	}
	return false
}

// extractHTMLText 从HTML中剥离标签提取纯文本
// 摘要步骤用它处理抓取到的网页内容
func extractHTMLText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	// 去掉脚本和样式后取正文文本
	doc.Find("script, style").Remove()
	text := doc.Text()

	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}
