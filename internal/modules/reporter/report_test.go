package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"portgrab/internal/core/types"
	"portgrab/internal/modules/portscan"
	"portgrab/internal/utils/formatter"

	"github.com/xuri/excelize/v2"
)

func sampleResults() []types.PortResult {
	return []types.PortResult{
		{Port: 22, Status: types.StatusOpen, Banner: "SSH-2.0-OpenSSH_8.9"},
		{Port: 23, Status: types.StatusClosed, Banner: ""},
		{Port: 80, Status: types.StatusOpen, Banner: types.NoBanner},
		{Port: 8080, Status: types.StatusOpen, Banner: `say "hi", <ok> & 你好`},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	want := sampleResults()

	if _, err := GeneratePortscanCSV(want, path); err != nil {
		t.Fatalf("写入CSV失败: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "port,status,banner\r\n22,OPEN,SSH-2.0-OpenSSH_8.9\r\n") {
		t.Errorf("CSV内容不符合预期:\n%s", raw)
	}

	got, err := LoadPortscanCSV(path)
	if err != nil {
		t.Fatalf("读取CSV失败: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("往返结果不一致:\n期望 %+v\n实际 %+v", want, got)
	}
}

func TestCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if _, err := GeneratePortscanCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "port,status,banner\r\n" {
		t.Errorf("空结果应只有表头，实际 %q", raw)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	want := sampleResults()

	if _, err := GeneratePortscanJSON(want, path); err != nil {
		t.Fatalf("写入JSON失败: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte("[\n  {\n    \"port\": 22,\n    \"status\": \"OPEN\",")) {
		t.Errorf("JSON缩进不符合预期:\n%s", raw)
	}
	if !bytes.Contains(raw, []byte(`<ok> & 你好`)) {
		t.Errorf("横幅不应被HTML转义:\n%s", raw)
	}

	var got []types.PortResult
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("解析JSON失败: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("往返结果不一致:\n期望 %+v\n实际 %+v", want, got)
	}
}

func TestJSONEmptyArray(t *testing.T) {
	b, err := MarshalPortscanJSON(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "[]" {
		t.Errorf("空结果应输出 []，实际 %q", b)
	}
}

func TestExcelReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if _, err := GeneratePortscanExcel(sampleResults(), path); err != nil {
		t.Fatalf("写入Excel失败: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("打开Excel失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("PortScan")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("期望 5 行（含表头），实际 %d", len(rows))
	}
	if !reflect.DeepEqual(rows[0], []string{"Port", "Status", "Banner"}) {
		t.Errorf("表头错误: %v", rows[0])
	}
	if rows[1][0] != "22" || rows[1][1] != "OPEN" {
		t.Errorf("第一行数据错误: %v", rows[1])
	}
}

func TestSaveResults(t *testing.T) {
	tests := []struct {
		format string
		exts   []string
	}{
		{"csv", []string{".csv"}},
		{"json", []string{".json"}},
		{"both", []string{".csv", ".json"}},
		{"XLSX", []string{".xlsx"}},
		{"all", []string{".csv", ".json", ".xlsx"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			prefix := filepath.Join(t.TempDir(), "nested", "scan_results")
			paths, err := SaveResults(tt.format, prefix, sampleResults())
			if err != nil {
				t.Fatalf("保存失败: %v", err)
			}
			if len(paths) != len(tt.exts) {
				t.Fatalf("期望 %d 个文件，实际 %v", len(tt.exts), paths)
			}
			for i, ext := range tt.exts {
				if paths[i] != prefix+ext {
					t.Errorf("期望 %s，实际 %s", prefix+ext, paths[i])
				}
				if _, err := os.Stat(paths[i]); err != nil {
					t.Errorf("文件不存在: %v", err)
				}
			}
		})
	}
}

func TestSaveResultsUnknownFormat(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "x")
	if _, err := SaveResults("xml", prefix, nil); err == nil {
		t.Error("未知格式应返回错误")
	}
}

func TestSaveResultsWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// 前缀的父目录是普通文件，创建目录必然失败
	if _, err := SaveResults("csv", filepath.Join(blocker, "out"), sampleResults()); err == nil {
		t.Error("写入失败时应返回错误")
	}
}

func TestConsoleOutput(t *testing.T) {
	formatter.SetColorEnabled(false)
	defer formatter.SetColorEnabled(true)

	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.PrintResult(types.PortResult{Port: 22, Status: types.StatusOpen, Banner: "SSH-2.0"})
	c.PrintResult(types.PortResult{Port: 23, Status: types.StatusClosed})
	c.PrintSummary(&portscan.ScanResult{OpenCount: 1, Total: 1024, Elapsed: 1234 * time.Millisecond})
	c.PrintInterrupted()

	want := "[+] Port 22    OPEN   --> SSH-2.0\n" +
		"[-] Port 23    CLOSED\n" +
		"\nDone in 1.23s. Open ports: 1/1024.\n" +
		"\nScan interrupted by user.\n"
	if buf.String() != want {
		t.Errorf("控制台输出不符合预期:\n期望 %q\n实际 %q", want, buf.String())
	}
}

func TestConsoleHeader(t *testing.T) {
	formatter.SetColorEnabled(false)
	defer formatter.SetColorEnabled(true)

	var buf bytes.Buffer
	NewConsole(&buf).PrintHeader(
		portscan.Target{Host: "127.0.0.1", StartPort: 1, EndPort: 1024},
		portscan.Options{Concurrency: 200, Timeout: 1500 * time.Millisecond},
	)
	for _, want := range []string{"Target     : 127.0.0.1", "Port range : 1-1024 (1024 ports)", "Threads    : 200", "Timeout    : 1.5s"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("头部缺少 %q:\n%s", want, buf.String())
		}
	}
}
