package Road

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// NameTokens 把道路名拆成比较用的记号：全角转半角、大小写折叠，
// 汉字转为不带声调的拼音，其余字符各自成为一个记号，空白丢弃
func NameTokens(name string) []string {
	folded := cases.Fold().String(width.Fold.String(name))

	a := pinyin.NewArgs()
	a.Style = pinyin.NORMAL
	var tokens []string
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			continue
		case unicode.Is(unicode.Han, r):
			if py := pinyin.SinglePinyin(r, a); len(py) > 0 && py[0] != "" {
				tokens = append(tokens, py[0])
				continue
			}
		}
		tokens = append(tokens, string(r))
	}
	return tokens
}

// NormalizeName 规范化后的名字
func NormalizeName(name string) string {
	return strings.Join(NameTokens(name), "")
}

// NameDistance 规范化记号序列之间的 Damerau-Levenshtein（相邻交换）距离
func NameDistance(a, b string) int {
	return tokenDistance(NameTokens(a), NameTokens(b))
}

func tokenDistance(s, t []string) int {
	n, m := len(s), len(t)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	d := make([][]int, n+1)
	for i := range d {
		d[i] = make([]int, m+1)
		d[i][0] = i
	}
	for j := 0; j <= m; j++ {
		d[0][j] = j
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := 1
			if s[i-1] == t[j-1] {
				cost = 0
			}
			d[i][j] = min3(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && s[i-1] == t[j-2] && s[i-2] == t[j-1] && d[i-2][j-2]+cost < d[i][j] {
				d[i][j] = d[i-2][j-2] + cost
			}
		}
	}
	return d[n][m]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// IsSimilarName 两个不同的名字在规范化后最多相差一个记号
func IsSimilarName(a, b string) bool {
	if a == b || a == "" || b == "" {
		return false
	}
	return NameDistance(a, b) <= 1
}
