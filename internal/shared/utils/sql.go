package utils

import (
	"fmt"
	"strings"
)

// JoinWithAnd joins a slice of strings with AND operator
func JoinWithAnd(clauses []string) string {
	return strings.Join(clauses, " AND ")
}

// WhereBuilder gom điều kiện WHERE với placeholder $n tăng dần
type WhereBuilder struct {
	clauses []string
	args    []any
}

// Add thêm một điều kiện; mỗi "?" trong clause được thay bằng $n
func (w *WhereBuilder) Add(clause string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

// SQL trả về " WHERE ..." hoặc chuỗi rỗng
func (w *WhereBuilder) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + JoinWithAnd(w.clauses)
}

// Args trả về args theo thứ tự placeholder
func (w *WhereBuilder) Args() []any {
	return w.args
}

// Next trả về placeholder tiếp theo (dùng cho LIMIT/OFFSET)
func (w *WhereBuilder) Next(arg any) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

// LikePattern escape %, _ và \ rồi bọc trong %...% cho ILIKE
func LikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
