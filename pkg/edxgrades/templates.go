package edxgrades

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/mitodl/lmod-proxy/internal/logger"
)

// transferFailedTmpl renders the partial-failure summary surfaced to
// course staff when an import reports failed rows.
var transferFailedTmpl = template.Must(template.New("grade_transfer_failed").Parse(
	`Failed to transfer {{.NumberFailed}} grades:
<ul>
{{- range .FailedGrades}}
<li>{{.}}</li>
{{- end}}
</ul>`))

// indexTmpl is the informational page served on GET requests.
var indexTmpl = template.Must(template.New("index").Parse(
	`<h1>LMod Proxy edX Grades &quot;API&quot;</h1>
<p>POST a form with fields <code>gradebook</code>, <code>user</code>,
<code>datafile</code> (optional), <code>section</code> (optional), and
<code>submit</code> set to one of:</p>
<ul>
{{- range .Actions}}
<li><code>{{.}}</code></li>
{{- end}}
</ul>`))

// renderTransferFailed turns a failure count and the failed rows into the
// display message. Template execution cannot realistically fail here, but
// a plain fallback keeps the handler total if it ever does.
func renderTransferFailed(numberFailed int, failedGrades []any) string {
	var sb strings.Builder
	err := transferFailedTmpl.Execute(&sb, map[string]any{
		"NumberFailed": numberFailed,
		"FailedGrades": failedGrades,
	})
	if err != nil {
		logger.Error("failed to render grade transfer failure message", "error", err)
		return fmt.Sprintf("Failed to transfer %d grades", numberFailed)
	}
	return sb.String()
}
