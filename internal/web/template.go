package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
	"github.com/sweeney/dht-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"kind": dht.Kind,
	"when": func(t time.Time) string { return t.UTC().Format("2006-01-02T15:04:05Z") },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="30">
<title>DHT Sensor{{if .Config.Name}} ({{.Config.Name}}){{end}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.warn { color: orange; }
.err { color: red; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>DHT Sensor{{if .Config.Name}} ({{.Config.Name}}){{end}}</h1>

<h2>Reading</h2>
<table>
{{with .LastGood}}<tr><th>Humidity</th><td id="humidity" class="{{if .InRange}}ok{{else}}warn{{end}}">{{printf "%.1f" .Reading.Humidity}} %</td></tr>
<tr><th>Temperature</th><td id="temperature" class="{{if .InRange}}ok{{else}}warn{{end}}">{{printf "%.1f" .Reading.Temperature}} &deg;C ({{printf "%.1f" .Reading.Fahrenheit}} &deg;F)</td></tr>
<tr><th>Measured</th><td>{{when .Timestamp}}</td></tr>
{{else}}<tr><th>Humidity</th><td id="humidity" class="warn">no reading yet</td></tr>
{{end}}{{with .Last}}{{if .Err}}<tr><th>Last Error</th><td id="last-error" class="err">{{kind .Err}} after {{.Attempts}} attempt(s) at {{when .Timestamp}}</td></tr>{{end}}{{end}}
<tr><th>Consecutive Errors</th><td>{{.Consecutive}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Read Counts</h2>
<table>
<tr><th>Attempts</th><td>{{.Counts.Attempts}}</td></tr>
<tr><th>OK</th><td>{{.Counts.OK}}</td></tr>
<tr><th>Timeouts</th><td>{{.Counts.Timeouts}}</td></tr>
<tr><th>Checksum Errors</th><td>{{.Counts.Checksums}}</td></tr>
<tr><th>Other Failures</th><td>{{.Counts.Failures}}</td></tr>
<tr><th>Out Of Range</th><td>{{.Counts.OutOfRange}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Sensor</th><td>{{.Config.Sensor}} on bank {{.Config.Bank}} pin {{.Config.Pin}} ({{.Config.Backend}})</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{when .StartTime}}</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Retries</th><td>{{.Config.Retries}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
