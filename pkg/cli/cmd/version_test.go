package cmd

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestVersionCmdOutput(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)
	out := buf.String()

	if !strings.Contains(out, "plan-engine "+Version) {
		t.Fatalf("输出缺少版本号: %s", out)
	}
	if !strings.Contains(out, runtime.Version()) {
		t.Fatalf("输出缺少Go运行时版本: %s", out)
	}
	if !strings.Contains(out, "server:") {
		t.Fatalf("输出缺少服务器地址: %s", out)
	}
}
