package codegen

import (
	"strings"
	"unicode"
)

// lowerCamel lower-cases the leading word of an exported identifier,
// treating a run of capitals as one initialism:
// "DeploymentScale" -> "deploymentScale", "APIService" -> "apiService".
func lowerCamel(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n > 1 && n < len(runes) && unicode.IsLower(runes[n]) {
		n--
	}
	for i := range n {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// snakeCase splits an identifier at word boundaries:
// "HorizontalPodAutoscaler" -> "horizontal_pod_autoscaler",
// "CSIDriver" -> "csi_driver".
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// packageIdent turns a path segment into a valid package name.
func packageIdent(segment string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(segment) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	ident := b.String()
	if ident == "" || unicode.IsDigit(rune(ident[0])) {
		ident = "p" + ident
	}
	return ident
}

// importAlias joins namespace segments into one identifier:
// ["autoscaling", "v1"] -> "autoscalingv1".
func importAlias(namespace []string) string {
	var b strings.Builder
	for _, seg := range namespace {
		b.WriteString(packageIdent(seg))
	}
	return packageIdent(b.String())
}
