// Package panel renders Lemonade responses as self-contained HTML fragments
// suitable for appending to a chat message.
package panel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/dustin/go-humanize"

	"lemonade-panel/internal/lemonade"
	"lemonade-panel/internal/util"
)

// htmlFence wraps the fragment so chat UIs render it as an HTML block.
const htmlFence = "```"

const gridLayoutCSS = `.layout { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 10px; }`
const flexLayoutCSS = `.layout { display: flex; flex-direction: column; gap: 10px; }`

var panelTemplate = template.Must(template.New("panel").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<style>
body { font-family: sans-serif; background: transparent; margin: 0; color: #e2e8f0; }
.panel { background: #0f172a; border: 1px solid #1f2937; border-radius: 8px; padding: 12px; }
.header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 12px; border-bottom: 1px solid #1f2937; padding-bottom: 8px; }
.title { font-weight: 600; }
.badge { font-size: 0.75rem; background: #1e293b; padding: 2px 8px; border-radius: 99px; color: #94a3b8; text-transform: uppercase; }
{{.LayoutCSS}}
.card { background: #1e293b50; border: 1px solid #334155; border-radius: 6px; overflow: hidden; }
.card-header { background: #1e293b; padding: 6px 10px; display: flex; justify-content: space-between; align-items: center; }
.card-title { font-size: 0.75rem; color: #94a3b8; font-weight: bold; text-transform: uppercase; }
.card-size { font-size: 0.65rem; color: #64748b; }
.indicator { width: 8px; height: 8px; border-radius: 50%; background: #64748b; }
.indicator.ok { background: #22c55e; box-shadow: 0 0 5px #22c55e40; }
.indicator.error { background: #ef4444; }
pre { margin: 0; padding: 10px; font-family: monospace; font-size: 0.7rem; white-space: pre-wrap; word-wrap: break-word; color: #cbd5e1; max-height: 300px; overflow-y: auto; }
pre::-webkit-scrollbar { width: 6px; height: 6px; }
pre::-webkit-scrollbar-thumb { background: #475569; border-radius: 3px; }
pre::-webkit-scrollbar-track { background: #0f172a; }
</style>
</head>
<body>
<div class="panel">
<div class="header"><span class="title">&#127819; {{.Title}}</span><span class="badge">{{.Badge}}</span></div>
<div class="layout">{{.Content}}</div>
</div>
</body>
</html>`))

type panelData struct {
	Title     string
	Badge     string
	LayoutCSS template.CSS
	Content   template.HTML
}

// wrap embeds card markup into the full panel document and fences it.
func wrap(title, badge, content string, grid bool) string {
	layout := flexLayoutCSS
	if grid {
		layout = gridLayoutCSS
	}
	var buf bytes.Buffer
	err := panelTemplate.Execute(&buf, panelData{
		Title:     title,
		Badge:     badge,
		LayoutCSS: template.CSS(layout),
		Content:   template.HTML(content),
	})
	if err != nil {
		// Template and data are static; this cannot fail at runtime.
		return htmlFence + "\n" + err.Error() + "\n" + htmlFence
	}
	return htmlFence + "html\n" + buf.String() + "\n" + htmlFence
}

// card renders one card. size is a humanized payload size, empty to omit.
func card(label, content, statusClass, size string) string {
	sizeSpan := ""
	if size != "" {
		sizeSpan = `<span class="card-size">` + html.EscapeString(size) + `</span>`
	}
	return fmt.Sprintf(
		`<div class="card"><div class="card-header"><span class="card-title">%s</span>%s<span class="indicator %s"></span></div><pre>%s</pre></div>`,
		html.EscapeString(label), sizeSpan, statusClass, html.EscapeString(content),
	)
}

// RenderOverview renders the fan-out results as a grid of status cards,
// one per probe, in probe order.
func RenderOverview(results []lemonade.ProbeResult) string {
	var parts []string
	for _, res := range results {
		var content, size string
		statusClass := "ok"

		switch {
		case res.Err != nil:
			content = "Error: " + res.Err.Error()
			statusClass = "error"
		case !res.Response.OK():
			content = fmt.Sprintf("Error %d: %s", res.Response.StatusCode, res.Response.Text())
			statusClass = "error"
		default:
			content = PrettyJSON(res.Response.Body)
			size = humanize.IBytes(uint64(len(res.Response.Body)))
		}

		parts = append(parts, card(res.Label, content, statusClass, size))
	}
	return wrap("System Overview", "Report", strings.Join(parts, ""), true)
}

// RenderResponse renders a single command's response panel.
func RenderResponse(badge string, resp *lemonade.Response) string {
	statusClass := "ok"
	if !resp.OK() {
		statusClass = "error"
	}
	c := card("Response", PrettyJSON(resp.Body), statusClass, humanize.IBytes(uint64(len(resp.Body))))
	return wrap("Lemonade Panel", badge, c, false)
}

// RenderError renders a transport-failure panel.
func RenderError(msg string) string {
	c := `<div class="card"><pre style="color:#ef4444">` + html.EscapeString(msg) + `</pre></div>`
	return wrap("Error", "Fail", c, false)
}

// PrettyJSON indents a JSON payload, falling back to the raw text when the
// body is not valid JSON.
func PrettyJSON(b []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(b), "", "  "); err != nil {
		return string(b)
	}
	return buf.String()
}

// FormatModelList flattens a /models response into the plain-text choice
// list shown in the model-selection prompt.
func FormatModelList(body []byte, limit int) string {
	m, err := util.DecodeJSONMap(body)
	if err != nil {
		return "Could not parse model list."
	}

	data, ok := m["data"].([]any)
	if !ok || len(data) == 0 {
		return "No models found."
	}

	var lines []string
	for _, entry := range data {
		mm, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		id, ok := util.ToString(mm["id"])
		if !ok || id == "" {
			id = "Unknown"
		}

		size := "?"
		if f, ok := util.ToFloat(mm["size"]); ok {
			size = humanize.Ftoa(f)
		} else if s, ok := util.ToString(mm["size"]); ok {
			size = s
		}

		downloaded := ""
		if dl, ok := util.ToBool(mm["downloaded"]); ok && dl {
			downloaded = "[DL]"
		}

		lines = append(lines, fmt.Sprintf("• %s (%sGB) %s", id, size, downloaded))
	}

	if len(lines) == 0 {
		return "No models found."
	}
	if len(lines) > limit {
		return strings.Join(lines[:limit], "\n") + "\n... (and more)"
	}
	return strings.Join(lines, "\n")
}
