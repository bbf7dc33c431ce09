package procscan

import "github.com/tidwall/gjson"

// parseCim reads ConvertTo-Json output of Win32_Process rows. PowerShell
// emits a bare object instead of an array when there is a single row.
func parseCim(out []byte) []Process {
	if !gjson.ValidBytes(out) {
		return nil
	}
	doc := gjson.ParseBytes(out)
	rows := []gjson.Result{doc}
	if doc.IsArray() {
		rows = doc.Array()
	}
	var procs []Process
	for _, row := range rows {
		cmd := row.Get("CommandLine").String()
		pid := int(row.Get("ProcessId").Int())
		if cmd == "" || pid <= 0 {
			continue
		}
		procs = append(procs, Process{PID: pid, Command: cmd, Cwd: UnknownCwd})
	}
	return procs
}
