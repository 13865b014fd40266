package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/thermoshield/internal/status"
	"github.com/sweeney/thermoshield/internal/store"
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
	"temperature": func(ch store.Channel) string {
		if ch.Disconnected() {
			return "disconnected"
		}
		return fmt.Sprintf("%.1f °C", ch.Temperature)
	},
	"inc": func(i int) int { return i + 1 },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Thermoshield</title>
<style>
body { font-family: monospace; max-width: 760px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.fault { color: red; font-weight: bold; }
.focus { background: #f4f4f4; }
</style>
</head>
<body>
<h1>Thermoshield{{if .Fault}} <span class="fault">FAULT</span>{{end}}</h1>

<h2>Channels</h2>
{{if .Ready}}<table>
<tr><th>Ch</th><th>Temperature</th><th>Band</th><th>State</th><th>Override</th><th>Actuators</th><th>Log</th></tr>
{{range $i, $ch := .Channels}}{{if $ch.Active}}<tr{{if eq $i $.Focus}} class="focus"{{end}}>
<td>{{inc $i}}</td>
<td class="{{if $ch.Disconnected}}disconnected{{end}}">{{temperature $ch}}</td>
<td>{{$ch.Low}}..{{$ch.High}}</td>
<td class="{{if $ch.IsOn}}on{{else}}off{{end}}">{{if $ch.IsOn}}ON{{else}}OFF{{end}}</td>
<td>{{$ch.Override}}</td>
<td>{{$ch.Actuators}}</td>
<td>{{if $ch.IsLogging}}yes{{else}}no{{end}}</td>
</tr>
{{end}}{{end}}</table>{{else}}<p class="unknown">starting</p>{{end}}

<h2>Actuators</h2>
<table>
<tr>{{range $i, $on := .Actuators}}<td class="{{if $on}}on{{else}}off{{end}}">{{inc $i}}: {{if $on}}ON{{else}}OFF{{end}}</td>{{end}}</tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counts</h2>
<table>
<tr><th>Toggles</th><td>{{.Counts.Toggles}}</td></tr>
<tr><th>Overrides</th><td>{{.Counts.Overrides}}</td></tr>
<tr><th>Sample errors</th><td>{{.Counts.SampleErrors}}</td></tr>
<tr><th>Duty logs</th><td>{{.Counts.LogsWritten}} written, {{.Counts.LogFailures}} failed</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Last log</th><td>{{if .LastLog.IsZero}}never{{else}}{{.LastLog.UTC.Format "2006-01-02T15:04:05Z"}}{{end}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Sample period</th><td>{{.Config.SamplePeriodMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("http: render index: %v", err)
	}
}
