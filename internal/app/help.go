package app

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# nodedeck

A dashboard for the Node.js projects under one directory.

## Navigation

| Key | Action |
|-----|--------|
| ` + "`j` `↓`" + ` | move down |
| ` + "`k` `↑`" + ` | move up |
| ` + "`gg`" + ` | jump to top |
| ` + "`G`" + ` | jump to bottom |
| ` + "`i` `/`" + ` | search by name |
| ` + "`esc`" + ` | clear search |

## Projects

| Key | Action |
|-----|--------|
| ` + "`enter`" + ` | open the editor in a new terminal |
| ` + "`s`" + ` | start the dev server, or stop it when running |
| ` + "`I`" + ` | install dependencies |
| ` + "`c`" + ` | clone a git repository (prefilled from the clipboard) |
| ` + "`x`" + ` | stop waiting for a cloned or created project |
| ` + "`n`" + ` | create a new project |
| ` + "`D`" + ` | delete the selected project |

## Maintenance

| Key | Action |
|-----|--------|
| ` + "`r`" + ` | rescan the projects directory |
| ` + "`m` `S`" + ` | measure every node_modules folder |
| ` + "`dd`" + ` | remove node_modules from stale projects |
| ` + "`C`" + ` | change the projects directory |
| ` + "`?`" + ` | toggle key hints |
| ` + "`h`" + ` | this help |
| ` + "`q`" + ` | quit |

A project is stale when it has node_modules, is not running and was last
started from nodedeck more than 30 days ago. Projects never started here are
never stale.
`

// renderHelp renders the help screen for the given terminal width. It falls
// back to the raw markdown when rendering fails.
func renderHelp(width int) string {
	wrap := 80
	if width > 0 && width-4 < wrap {
		wrap = max(width-4, 20)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
