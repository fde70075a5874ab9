package output

import (
	"html/template"
	"io"
	"net/url"
	"sort"
	"time"

	"github.com/selimozcann/linkflow/internal/apperr"
	"github.com/selimozcann/linkflow/internal/model"
	"github.com/selimozcann/linkflow/internal/runner"
	"github.com/selimozcann/linkflow/internal/util"
)

// ResultType enumerates the classification of a redirect chain.
type ResultType string

const (
	ResultTypeOK         ResultType = "ok"
	ResultTypeRedirect   ResultType = "cross_domain_redirect"
	ResultTypeUnredirect ResultType = "same_domain_redirect"
	ResultTypeTruncated  ResultType = "truncated"
	ResultTypeError      ResultType = "error"
)

// Record represents one line in the JSONL report.
type Record struct {
	Timestamp string        `json:"timestamp"`
	InputURL  string        `json:"input_url"`
	Type      ResultType    `json:"type"`
	Result    *model.Result `json:"result,omitempty"`
	ErrorKind apperr.Kind   `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Summary contains counters for the report header.
type Summary struct {
	TotalTargets int
	Redirected   int
	Warnings     int
	Errors       int
}

// ResultView is used by the HTML template with pre-computed fields.
type ResultView struct {
	Index      int
	InputURL   string
	FinalURL   string
	Type       ResultType
	StatusCode int
	Hops       []model.Hop
	Safety     *model.Verdict
	Server     *model.ServerInfo
	Error      string
}

// PageData provides the full context for the HTML report.
type PageData struct {
	Title         string
	GeneratedAt   time.Time
	Params        map[string]string
	OrderedParams []Param
	Summary       Summary
	Results       []ResultView
}

// Param represents a rendered CLI argument/value pair.
type Param struct {
	Key   string
	Value string
}

// BuildRecord converts a runner outcome into a Record for JSONL output.
func BuildRecord(o runner.Outcome, now time.Time) Record {
	rec := Record{
		Timestamp: now.UTC().Format(time.RFC3339),
		InputURL:  o.Target,
		Type:      DetermineType(o),
	}
	if o.Err != nil {
		rec.ErrorKind = apperr.KindOf(o.Err)
		rec.Error = o.Err.Error()
		return rec
	}
	res := o.Result
	rec.Result = &res
	if res.AnalyzedAt != nil {
		rec.Timestamp = res.AnalyzedAt.UTC().Format(time.RFC3339)
	}
	return rec
}

// BuildResultView converts a runner outcome into a ResultView.
func BuildResultView(idx int, o runner.Outcome) ResultView {
	v := ResultView{Index: idx, InputURL: o.Target, FinalURL: o.Target, Type: DetermineType(o)}
	if o.Err != nil {
		v.Error = o.Err.Error()
		return v
	}
	v.FinalURL = o.Result.FinalURL
	v.Hops = append([]model.Hop(nil), o.Result.Redirects...)
	v.Safety = o.Result.Safety
	v.Server = o.Result.ServerInfo
	if last, ok := o.Result.Last(); ok {
		v.StatusCode = last.Status
	}
	return v
}

// BuildSummary derives high level counters from the outcomes.
func BuildSummary(outcomes []runner.Outcome) Summary {
	sum := Summary{TotalTargets: len(outcomes)}
	for _, o := range outcomes {
		if o.Err != nil {
			sum.Errors++
			continue
		}
		if o.Result.TotalRedirects > 1 {
			sum.Redirected++
		}
		if o.Result.Safety != nil && o.Result.Safety.Level == model.LevelWarning {
			sum.Warnings++
		}
	}
	return sum
}

// DetermineType classifies an outcome into one of the ResultType values.
func DetermineType(o runner.Outcome) ResultType {
	if o.Err != nil {
		return ResultTypeError
	}
	res := o.Result
	last, ok := res.Last()
	if !ok {
		return ResultTypeError
	}
	if res.Truncated {
		return ResultTypeTruncated
	}
	if last.Status >= 400 {
		return ResultTypeError
	}
	if len(res.Redirects) == 1 {
		return ResultTypeOK
	}
	if sameBaseDomain(res.Redirects[0].URL, res.FinalURL) {
		return ResultTypeUnredirect
	}
	return ResultTypeRedirect
}

func sameBaseDomain(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return util.BaseDomain(ua.Hostname()) == util.BaseDomain(ub.Hostname())
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatTime": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}).Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root { color-scheme: light dark; }
body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 24px; }
.section { border:1px solid #e5e7eb; border-radius:12px; padding:16px 20px; margin-bottom:18px; }
.meta { color:#6b7280; font-size:12px; }
.table { width:100%; border-collapse:collapse; font-size:14px; }
.table th, .table td { border-bottom:1px solid #e5e7eb; padding:6px 8px; text-align:left; }
.url { font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace; font-size:13px; }
.level-safe { color:#16a34a; } .level-unknown { color:#6b7280; }
.level-caution { color:#d97706; } .level-warning { color:#dc2626; }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p class="meta">Generated at {{formatTime .GeneratedAt}}</p>
</header>
<section id="summary" class="section">
  <h2>Summary</h2>
  <p>Targets <strong>{{.Summary.TotalTargets}}</strong> &middot; Redirected <strong>{{.Summary.Redirected}}</strong> &middot; Warnings <strong>{{.Summary.Warnings}}</strong> &middot; Errors <strong>{{.Summary.Errors}}</strong></p>
</section>
{{if .OrderedParams}}
<section id="parameters" class="section">
  <h2>Parameters</h2>
  <dl>
  {{- range .OrderedParams }}
    <dt>{{.Key}}</dt>
    <dd><span class="url">{{.Value}}</span></dd>
  {{- end }}
  </dl>
</section>
{{end}}
<section id="chains" class="section">
  <h2>Redirect Chains</h2>
  {{range .Results}}
    <details open>
      <summary><span class="url">{{.InputURL}}</span> &rarr; <span class="url">{{.FinalURL}}</span> <span class="meta">{{.Type}} &middot; {{len .Hops}} hops</span></summary>
      {{if .Error}}<p class="meta">Error: {{.Error}}</p>{{end}}
      {{with .Safety}}<p class="level-{{.Level}}">Safety: {{.Level}} &mdash; {{.Message}}</p>{{end}}
      {{with .Server}}<p class="meta">Server {{.Server}} &middot; {{.ContentType}}</p>{{end}}
      {{if .Hops}}
      <table class="table">
        <thead><tr><th>Step</th><th>URL</th><th>Status</th><th>Time (ms)</th></tr></thead>
        <tbody>
        {{range .Hops}}
          <tr><td>{{.Step}}</td><td class="url">{{.URL}}</td><td>{{.Status}}</td><td>{{.TimeMs}}</td></tr>
        {{end}}
        </tbody>
      </table>
      {{end}}
    </details>
  {{end}}
</section>
</body>
</html>
`))

// RenderHTML renders the HTML report using the provided data.
func RenderHTML(w io.Writer, data PageData) error {
	if data.Params != nil {
		keys := make([]string, 0, len(data.Params))
		for k := range data.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make([]Param, 0, len(keys))
		for _, k := range keys {
			ordered = append(ordered, Param{Key: k, Value: data.Params[k]})
		}
		data.OrderedParams = ordered
	}
	return htmlTemplate.Execute(w, data)
}
