// Package csvutil 读取人工维护的种子 CSV：去 BOM、表头与字段去空白、记录行号。
package csvutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Row 一条数据行
type Row struct {
	Line   int // 源文件中的行号（表头为第 1 行）
	values map[string]string
}

// Get 取列值（已去空白），列不存在时返回空串
func (r Row) Get(col string) string {
	return r.values[col]
}

// First 依次尝试多个列名（新旧表头兼容），返回第一个非空值
func (r Row) First(cols ...string) string {
	for _, c := range cols {
		if v := r.values[c]; v != "" {
			return v
		}
	}
	return ""
}

// Values 行内全部列值
func (r Row) Values() map[string]string {
	return r.values
}

// Table 一个 CSV 文件
type Table struct {
	Name    string
	Header  []string
	Rows    []Row
	SHA256  string
	Missing bool // 文件不存在，按空表处理
}

// Has 表头是否包含该列
func (t *Table) Has(col string) bool {
	for _, h := range t.Header {
		if h == col {
			return true
		}
	}
	return false
}

// NonBlank 某列的全部非空值（按行序）
func (t *Table) NonBlank(col string) []string {
	var out []string
	for _, r := range t.Rows {
		if v := r.values[col]; v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ReadFile 读取 CSV；文件不存在时返回 Missing 的空表
func ReadFile(name, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Table{Name: name, Missing: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取%s失败: %w", path, err)
	}
	t, err := Parse(name, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	sum := sha256.Sum256(data)
	t.SHA256 = hex.EncodeToString(sum[:])
	return t, nil
}

// Parse 解析 CSV 内容。列数不一致的行按表头对齐，多出的字段丢弃。
func Parse(name string, in io.Reader) (*Table, error) {
	r := csv.NewReader(stripBOM(in))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	t := &Table{Name: name}
	header, err := r.Read()
	if err == io.EOF {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
		if !utf8.ValidString(header[i]) {
			return nil, fmt.Errorf("表头编码不是UTF-8")
		}
	}
	t.Header = header

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := r.FieldPos(0)
		values := make(map[string]string, len(header))
		blank := true
		for i, h := range header {
			if h == "" || i >= len(rec) {
				continue
			}
			v := strings.TrimSpace(rec[i])
			if v != "" {
				blank = false
			}
			if _, dup := values[h]; dup {
				continue
			}
			values[h] = v
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, Row{Line: line, values: values})
	}
	return t, nil
}

// NewRow 由列值构造一行（测试和工具命令用）
func NewRow(line int, values map[string]string) Row {
	return Row{Line: line, values: values}
}

// Write 输出 CSV（UTF-8，无 BOM，LF 换行）
func Write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func stripBOM(in io.Reader) io.Reader {
	buf := make([]byte, len(bom))
	n, err := io.ReadFull(in, buf)
	if err != nil {
		// 不足 3 字节
		return bytes.NewReader(buf[:n])
	}
	if bytes.Equal(buf, bom) {
		return in
	}
	return io.MultiReader(bytes.NewReader(buf), in)
}

// DirSource 从目录读取种子 CSV
type DirSource struct {
	Dir string
}

// Table 读取 <Dir>/<name>
func (d DirSource) Table(name string) (*Table, error) {
	return ReadFile(name, filepath.Join(d.Dir, name))
}
