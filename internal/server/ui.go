package server

import (
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// jobListItem is the view model for one row of the job list page.
type jobListItem struct {
	ID        string
	State     string
	RefPath   string
	Mode      string
	Anchors   int
	Chords    int
	Loss      float64
	StartTime time.Time
	Error     string
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>stringart</title>
  <style>
    body { font-family: system-ui, sans-serif; margin: 2rem; background: #fafafa; }
    h1 { font-size: 1.4rem; }
    table { border-collapse: collapse; width: 100%; background: #fff; }
    th, td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #ddd; }
    th { background: #f0f0f0; }
    .state-running { color: #0a6; }
    .state-completed { color: #06c; }
    .state-failed, .state-cancelled { color: #c33; }
    code { font-size: 0.85em; }
    .empty { color: #888; padding: 1rem 0; }
  </style>
</head>
<body>
  <h1>String art jobs</h1>
  {{if .}}
  <table>
    <tr>
      <th>ID</th><th>State</th><th>Reference</th><th>Mode</th>
      <th>Anchors</th><th>Chords</th><th>Loss</th><th>Started</th><th>Preview</th>
    </tr>
    {{range .}}
    <tr>
      <td><code><a href="/api/v1/jobs/{{.ID}}/status">{{.ID}}</a></code></td>
      <td class="state-{{.State}}">{{.State}}{{if .Error}} ({{.Error}}){{end}}</td>
      <td>{{.RefPath}}</td>
      <td>{{.Mode}}</td>
      <td>{{.Anchors}}</td>
      <td>{{.Chords}}</td>
      <td>{{printf "%.2f" .Loss}}</td>
      <td>{{.StartTime.Format "15:04:05"}}</td>
      <td><a href="/api/v1/jobs/{{.ID}}/preview.png">preview</a>
          <a href="/api/v1/jobs/{{.ID}}/diff.png">diff</a></td>
    </tr>
    {{end}}
  </table>
  {{else}}
  <p class="empty">No jobs yet. POST a configuration to /api/v1/jobs to start one.</p>
  {{end}}
</body>
</html>
`))

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	jobs := s.jobManager.ListJobs()
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.After(jobs[j].StartTime)
	})

	items := make([]jobListItem, len(jobs))
	for i, job := range jobs {
		items[i] = jobListItem{
			ID:        job.ID,
			State:     string(job.State),
			RefPath:   job.Config.RefPath,
			Mode:      job.Config.Mode,
			Anchors:   job.Config.Anchors,
			Chords:    job.Chords,
			Loss:      job.Loss,
			StartTime: job.StartTime,
			Error:     job.Error,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, items); err != nil {
		slog.Error("Failed to render job list", "error", err)
	}
}
