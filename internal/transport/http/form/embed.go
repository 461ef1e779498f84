package formhttp

import (
	"embed"
	"html/template"
	"strconv"
	"strings"

	"machpredict/internal/form"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"hint":      inputHint,
	"toolID":    toolID,
	"fmtScore":  func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) },
	"fmtFloat":  func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"deref":     func(v *float64) float64 { return *v },
	"isChecked": func(set map[string]bool, tool string) bool { return set[tool] },
	"lookup": func(values map[string]map[string]string, tool, key string) string {
		return values[tool][key]
	},
}

// inputHint is the placeholder of a number input, e.g. "0.000" for a
// tolerance. Inputs always use step="any" so that range bounds finer than the
// display precision (0.00125, 0.000325) can be typed.
func inputHint(f form.Field) string {
	if f.Precision <= 0 {
		return ""
	}
	return "0." + strings.Repeat("0", f.Precision)
}
